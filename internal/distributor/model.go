package distributor

import (
	"time"

	"github.com/google/uuid"
)

// Distributor is a supplier the pharmacy purchases from or sells to.
type Distributor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	GSTIN     string    `json:"gstin,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
