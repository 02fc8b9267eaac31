package app

import (
	"encoding/json"
	"net/http"
)

// Limits is the limitation object of the relay information document.
type Limits struct {
	MaxMessageLength int  `json:"max_message_length,omitempty"`
	MaxSubscriptions int  `json:"max_subscriptions,omitempty"`
	MaxLimit         int  `json:"max_limit,omitempty"`
	AuthRequired     bool `json:"auth_required"`
	PaymentRequired  bool `json:"payment_required"`
}

// Info is the NIP-11 relay information document. Real clients fetch it on
// connect, so the mock serves one.
type Info struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PubKey        string `json:"pubkey,omitempty"`
	Contact       string `json:"contact,omitempty"`
	SupportedNIPs []int  `json:"supported_nips"`
	Software      string `json:"software"`
	Version       string `json:"version"`
	Icon          string `json:"icon,omitempty"`
	Limitation    Limits `json:"limitation"`
}

// NewInfo returns the default information document for a mock instance.
func NewInfo() *Info {
	return &Info{
		Name:          "simulatr",
		Description:   "in-process mock relay for git collaboration event testing",
		SupportedNIPs: []int{1, 9, 11, 22, 32, 34},
		Software:      Software,
		Version:       Version,
		Limitation: Limits{
			MaxMessageLength: MaxMessageSize,
		},
	}
}

// HandleRelayInfo serves the information document.
func (rl *Relay) HandleRelayInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/nostr+json")
	_ = json.NewEncoder(w).Encode(rl.Info)
}
