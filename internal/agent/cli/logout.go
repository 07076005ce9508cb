package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/config"
)

// NewLogoutCmd создаёт команду выхода.
//
// Сессия уничтожается на сервере, затем удаляется локальный файл сессии.
// Если сервер не смог удалить сессию, локальная cookie сохраняется.
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Выход (уничтожить сессию)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.LoggedIn(app.ServerURL) {
				if err := config.Clear(app.SessionPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}

			if err := NewAPIClient(app.ServerURL).Logout(app.Session.Cookie()); err != nil {
				return err
			}
			if err := config.Clear(app.SessionPath); err != nil {
				return err
			}
			app.Session = &config.Session{}

			fmt.Fprintln(cmd.OutOrStdout(), "logout ok")
			return nil
		},
	}
}
