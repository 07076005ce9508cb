// Package cli реализует командный интерфейс (CLI) клиентского приложения geoauth.
//
// Пакет отвечает за:
//   - определение root-команды и набора подкоманд;
//   - разбор аргументов и флагов командной строки;
//   - загрузку и сохранение локальной сессии (session cookie);
//   - выполнение команд и вывод результата пользователю.
//
// Точка входа пакета — функция Execute.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/config"
)

// DefaultServerURL — адрес сервера по умолчанию.
const DefaultServerURL = "http://127.0.0.1:8080"

// App содержит состояние CLI-приложения, разделяемое между командами.
//
// В структуре хранятся параметры подключения к серверу и загруженная сессия.
// Экземпляр App создаётся при построении root-команды и передаётся в подкоманды.
type App struct {
	// ServerURL — базовый URL сервера geoauth (например, "http://127.0.0.1:8080").
	ServerURL string

	// SessionPath — путь к файлу с сохранённой сессией.
	SessionPath string
	// Session — загруженная сессия. Может быть пустой, если вход не выполнялся.
	Session *config.Session
}

// NewRootCmd создаёт root-команду CLI и регистрирует подкоманды.
//
// buildVersion и buildDate используются для вывода информации о сборке (команда version).
// В PersistentPreRunE определяется путь к файлу сессии и загружается сохранённая cookie.
func NewRootCmd(buildVersion, buildDate string) *cobra.Command {
	app := &App{
		ServerURL: DefaultServerURL,
	}

	cmd := &cobra.Command{
		Use:   "geoauth",
		Short: "geoauth CLI — регистрация, вход и просмотр текущей сессии",
		Long: `geoauth CLI.

Команды:
  signup    Регистрация нового пользователя (локация определяется сервером по IP)
  login     Вход (session cookie сохраняется локально)
  whoami    Данные текущей сессии
  logout    Выход
  version   Версия и дата сборки

Примеры:

Регистрация:
  geoauth signup --name Alice --email alice@example.com

Логин:
  geoauth login --email alice@example.com
  (пароль спрашивается без эха; для скриптов есть --password-stdin)

Текущий пользователь:
  geoauth whoami
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.SessionPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				app.SessionPath = p
			}

			s, err := config.Load(app.SessionPath)
			if err != nil {
				return err
			}
			app.Session = s
			return nil
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", DefaultServerURL, "server base URL")
	cmd.PersistentFlags().StringVar(&app.SessionPath, "session-file", "", "session file (default ~/.geoauth/session.json)")

	cmd.AddCommand(NewSignupCmd(app))
	cmd.AddCommand(NewLoginCmd(app))
	cmd.AddCommand(NewWhoamiCmd(app))
	cmd.AddCommand(NewLogoutCmd(app))
	cmd.AddCommand(NewVersionCmd(buildVersion, buildDate))

	return cmd
}

// Execute запускает обработку CLI-команд.
//
// При ошибке выполнения команды сообщение выводится в stderr, после чего процесс
// завершается с кодом 1 (os.Exit(1)).
func Execute(buildVersion, buildDate string) {
	if err := NewRootCmd(buildVersion, buildDate).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
