package cli

import (
	"github.com/IvanChernomyrdin/go-geoauth/internal/agent/api"
)

// для тестов
var (
	NewAPIClient = api.NewClient
	ReadPassword = readPassword
)
