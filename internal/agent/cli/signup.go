package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSignupCmd создаёт CLI-команду для регистрации нового пользователя.
//
// Команда регистрирует пользователя на сервере geoauth по имени, email и паролю.
// Локацию (город и координаты) сервер определяет сам по IP запроса.
//
// Пример использования:
//
//	geoauth signup --name Alice --email alice@example.com --password StrongPass123
func NewSignupCmd(app *App) *cobra.Command {
	var name, email string
	var pw passwordFlags

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Регистрация нового пользователя",
		Long: `Регистрация нового пользователя на сервере.

Пример:
  geoauth signup --name Alice --email alice@example.com
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			c := NewAPIClient(app.ServerURL)
			if err := c.Signup(name, email, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signup ok, now run: geoauth login --email "+email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email for registration")
	pw.register(cmd)
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}
