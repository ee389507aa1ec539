package types

import (
	"github.com/castkeep/castkeep-api/internal/database"
	"github.com/castkeep/castkeep-api/internal/services/downloads"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
	"github.com/castkeep/castkeep-api/internal/services/sync"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB            *database.DB
	Registry      *subscriptions.Registry
	Subscriptions subscriptions.Service
	Sync          sync.Service
	Downloads     downloads.Service
}
