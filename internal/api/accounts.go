package api

import (
	"net/http"

	"go.uber.org/zap"
)

// handleFreeze marks an account frozen. Every subsequent event on the
// account is denied with account_frozen until it is unfrozen.
func (d *Dependencies) handleFreeze(w http.ResponseWriter, r *http.Request) {
	d.setFrozen(w, r, true)
}

func (d *Dependencies) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	d.setFrozen(w, r, false)
}

func (d *Dependencies) setFrozen(w http.ResponseWriter, r *http.Request, frozen bool) {
	accountID := r.PathValue("account_id")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "account_id is required"})
		return
	}

	if err := d.Freezes.SetFrozen(r.Context(), accountID, frozen); err != nil {
		d.Logger.Error("failed to set freeze state",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update freeze state"})
		return
	}

	writeJSON(w, http.StatusOK, FreezeResp{AccountID: accountID, Frozen: frozen})
}
