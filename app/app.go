package app

import (
	"database/sql"

	"github.com/akozyrev/surveys-api/config"
	"github.com/go-chi/oauth"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}
