package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/config"
	serr "github.com/IvanChernomyrdin/go-geoauth/internal/shared/errors"
)

// NewWhoamiCmd создаёт команду вывода данных текущей сессии (GET /user).
//
// Если сервер сессию не признаёт, локальный файл сессии удаляется.
func NewWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Показать данные текущей сессии",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Session.LoggedIn(app.ServerURL) {
				return serr.ErrUnauthenticated
			}

			me, err := NewAPIClient(app.ServerURL).Me(app.Session.Cookie())
			if err != nil {
				if errors.Is(err, serr.ErrUnauthenticated) {
					_ = config.Clear(app.SessionPath)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:      %s\n", me.Name)
			fmt.Fprintf(out, "email:     %s\n", me.Email)
			fmt.Fprintf(out, "location:  %s\n", me.Location)
			fmt.Fprintf(out, "latitude:  %s\n", me.Latitude)
			fmt.Fprintf(out, "longitude: %s\n", me.Longitude)
			return nil
		},
	}
}
