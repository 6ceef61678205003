package api

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/store"
)

func (d *Dependencies) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Name == "" || len(req.Name) > 255 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}
	if req.AlertChannel != "" && !validAlertChannel(req.AlertChannel) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "alert_channel must be 'log', 'email' or 'sms'"})
		return
	}

	tenant, plainKey, err := d.Tenants.CreateTenant(r.Context(), req.Name, req.AlertChannel)
	if err != nil {
		d.Logger.Error("failed to create tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create tenant"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateTenantResp{
		ID:           tenant.ID,
		Name:         tenant.Name,
		APIKey:       plainKey,
		APIKeyPrefix: tenant.APIKeyPrefix,
		AlertChannel: tenant.AlertChannel,
		CreatedAt:    tenant.CreatedAt,
	})
}

func (d *Dependencies) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := d.Tenants.ListTenants(r.Context())
	if err != nil {
		d.Logger.Error("failed to list tenants", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list tenants"})
		return
	}

	resp := make([]TenantResp, 0, len(tenants))
	for _, t := range tenants {
		resp = append(resp, tenantToResp(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	tenant, err := d.Tenants.GetTenant(r.Context(), id)
	if err != nil {
		d.Logger.Error("failed to get tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get tenant"})
		return
	}
	if tenant == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	writeJSON(w, http.StatusOK, tenantToResp(tenant))
}

func (d *Dependencies) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")

	var req UpdateTenantReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	if req.Name != nil && (len(*req.Name) == 0 || len(*req.Name) > 255) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}
	if req.AlertChannel != nil && !validAlertChannel(*req.AlertChannel) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "alert_channel must be 'log', 'email' or 'sms'"})
		return
	}
	if req.AllowBelow != nil && (*req.AllowBelow < 0 || *req.AllowBelow > 1) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "allow_below must be in [0,1]"})
		return
	}
	if req.DenyAt != nil && (*req.DenyAt < 0 || *req.DenyAt > 1) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "deny_at must be in [0,1]"})
		return
	}
	if req.AllowBelow != nil && req.DenyAt != nil && *req.AllowBelow >= *req.DenyAt {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "allow_below must be below deny_at"})
		return
	}

	tenant, err := d.Tenants.UpdateTenant(r.Context(), id, store.UpdateTenantParams{
		Name:         req.Name,
		AlertChannel: req.AlertChannel,
		AllowBelow:   req.AllowBelow,
		DenyAt:       req.DenyAt,
	})
	if err != nil {
		d.Logger.Error("failed to update tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update tenant"})
		return
	}
	if tenant == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	writeJSON(w, http.StatusOK, tenantToResp(tenant))
}

func (d *Dependencies) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	err := d.Tenants.DeleteTenant(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to delete tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete tenant"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dependencies) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	tenant, plainKey, err := d.Tenants.RotateAPIKey(r.Context(), id)
	if err != nil {
		d.Logger.Error("failed to rotate key", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to rotate API key"})
		return
	}
	writeJSON(w, http.StatusOK, RotateKeyResp{
		APIKey:       plainKey,
		APIKeyPrefix: tenant.APIKeyPrefix,
	})
}

func tenantToResp(t *store.Tenant) TenantResp {
	return TenantResp{
		ID:           t.ID,
		Name:         t.Name,
		APIKeyPrefix: t.APIKeyPrefix,
		AlertChannel: t.AlertChannel,
		AllowBelow:   t.AllowBelow,
		DenyAt:       t.DenyAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func validAlertChannel(c string) bool {
	return c == "log" || c == "email" || c == "sms"
}
