package library

import (
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"
	"go.uber.org/zap"
)

var logger = logging.Create("library", logging.Prod)

func SetLogger(l *zap.SugaredLogger) {
	logger = l
}
