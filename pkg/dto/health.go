package dto

/**
  {
      "status": "ok",
      "ledger": "postgres",
      "active_session": true
  }
*/

type Health struct {
	Status        string `json:"status"`
	Ledger        string `json:"ledger"`
	ActiveSession bool   `json:"active_session"`
	Error         string `json:"error,omitempty"`
}
