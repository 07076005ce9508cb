package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/config"
)

// NewLoginCmd создаёт CLI-команду для входа пользователя в систему.
//
// Команда выполняет аутентификацию на сервере geoauth, получает session cookie
// и сохраняет её в локальный файл сессии (права 0600).
//
// Пример использования:
//
//	geoauth login --email alice@example.com --password StrongPass123
func NewLoginCmd(app *App) *cobra.Command {
	var email string
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Логин пользователя (сохранить session cookie)",
		Long: `Логин пользователя.

Пример:
  geoauth login --email alice@example.com
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			// создаём API-клиент для общения с сервером
			c := NewAPIClient(app.ServerURL)
			me, cookie, err := c.Login(email, password)
			if err != nil {
				return err
			}

			app.Session = &config.Session{
				ServerURL:   app.ServerURL,
				Email:       me.Email,
				CookieName:  cookie.Name,
				CookieValue: cookie.Value,
				ExpiresAt:   cookie.Expires,
			}
			if err := config.Save(app.SessionPath, app.Session); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "login ok: %s (%s)\n", me.Name, me.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email for login")
	pw.register(cmd)
	cmd.MarkFlagRequired("email")

	return cmd
}
