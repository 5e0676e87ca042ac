package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pulsehq/pulse/internal/database"
	"github.com/pulsehq/pulse/internal/models"
	"github.com/pulsehq/pulse/internal/scrape"
	"log/slog"
)

// AccountHandler manages the tracked account watchlist.
type AccountHandler struct {
	store   *database.PostgresStore
	factory *scrape.Factory
	logger  *slog.Logger
}

// NewAccountHandler creates the watchlist handler.
func NewAccountHandler(store *database.PostgresStore, factory *scrape.Factory, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		store:   store,
		factory: factory,
		logger:  logger,
	}
}

// AddAccountRequest represents a request to track a new account.
type AddAccountRequest struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
	// Notify controls the welcome notification; defaults to true.
	Notify *bool `json:"notify,omitempty"`
}

// AccountsResponse wraps a list of accounts.
type AccountsResponse struct {
	Accounts []*models.Account `json:"accounts"`
	Count    int               `json:"count"`
}

// HandleAccounts handles GET and POST /api/accounts
func (h *AccountHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listAccounts(w, r)
	case http.MethodPost:
		h.addAccount(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAccountByHandle handles DELETE and PUT /api/accounts/{platform}/{handle}
func (h *AccountHandler) HandleAccountByHandle(w http.ResponseWriter, r *http.Request) {
	platform, handle, ok := splitAccountPath(r.URL.Path)
	if !ok {
		http.Error(w, "Expected /api/accounts/{platform}/{handle}", http.StatusBadRequest)
		return
	}

	scraper, err := h.factory.Scraper(models.Platform(platform))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		removed, err := scraper.RemoveAccount(r.Context(), handle)
		if err != nil {
			h.writeScrapeError(w, "failed to remove account", err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, map[string]any{"removed": removed})

	case http.MethodPut:
		account, err := scraper.UpdateAccount(r.Context(), handle)
		if err != nil {
			h.writeScrapeError(w, "failed to update account", err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, account)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListActiveAccounts(r.Context())
	if err != nil {
		h.logger.Error("failed to list accounts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, AccountsResponse{
		Accounts: accounts,
		Count:    len(accounts),
	})
}

func (h *AccountHandler) addAccount(w http.ResponseWriter, r *http.Request) {
	var req AddAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Platform == "" || req.Handle == "" {
		http.Error(w, "platform and handle are required", http.StatusBadRequest)
		return
	}

	scraper, err := h.factory.Scraper(models.Platform(req.Platform))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	notify := true
	if req.Notify != nil {
		notify = *req.Notify
	}

	account, err := scraper.AddAccount(r.Context(), req.Handle, notify)
	if err != nil {
		h.writeScrapeError(w, "failed to add account", err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, account)
}

// writeScrapeError maps engine error kinds onto HTTP status codes.
func (h *AccountHandler) writeScrapeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch models.KindOf(err) {
	case models.KindInvalidArgument:
		status = http.StatusBadRequest
	case models.KindNotFound:
		status = http.StatusNotFound
	case models.KindNotImplemented:
		status = http.StatusNotImplemented
	case models.KindRateLimited:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
		http.Error(w, "Internal server error", status)
		return
	}

	var engineErr *models.Error
	if errors.As(err, &engineErr) {
		http.Error(w, engineErr.Message, status)
		return
	}
	http.Error(w, err.Error(), status)
}

func splitAccountPath(path string) (platform, handle string, ok bool) {
	rest := strings.TrimPrefix(path, "/api/accounts/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
