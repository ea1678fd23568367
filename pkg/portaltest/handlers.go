package portaltest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/subscription"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req portalapi.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Veuillez fournir un nom d'utilisateur et un mot de passe")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a device bound to another ticket is rejected before credentials are checked
	prev := s.boundSession(req.MACAddress)
	if prev != nil && prev.username != req.Username {
		writeJSON(w, http.StatusForbidden, errorBody{
			Error:   portalapi.CodeDeviceAlreadyUsed,
			Message: "Cet appareil est déjà utilisé par un autre ticket",
		})
		return
	}

	u, ok := s.users[req.Username]
	if !ok || u.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Identifiants invalides")
		return
	}
	if u.Disabled {
		writeError(w, http.StatusForbidden, "Compte désactivé")
		return
	}
	sub := u.subscription()
	if sub.IsExpiredAt(s.now()) {
		writeError(w, http.StatusForbidden, "Aucun abonnement actif trouvé. Veuillez contacter l'administrateur.")
		return
	}

	if prev != nil {
		s.endSession(prev)
	}

	sess := &session{
		id:           u.SessionID,
		username:     u.Username,
		fingerprint:  req.MACAddress,
		accessToken:  u.AccessToken,
		refreshToken: newID(),
		active:       true,
	}
	// pinned ids apply to the first login only
	u.SessionID, u.AccessToken = "", ""
	if sess.id == "" {
		sess.id = newID()
	}
	if sess.accessToken == "" {
		sess.accessToken = newID()
	}
	s.sessions[sess.id] = sess
	if sess.fingerprint != "" {
		s.bindings[sess.fingerprint] = sess.id
	}

	sub.RemainingDays = sub.RemainingDaysAt(s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  sess.accessToken,
		"refresh_token": sess.refreshToken,
		"session_id":    sess.id,
		"user": portalapi.User{
			Username:     u.Username,
			Email:        u.Email,
			Subscription: sub,
		},
	})
}

// boundSession must be called with s.mu held.
func (s *Server) boundSession(fingerprint string) *session {
	if fingerprint == "" {
		return nil
	}
	id, ok := s.bindings[fingerprint]
	if !ok {
		return nil
	}
	return s.sessions[id]
}

// endSession must be called with s.mu held.
func (s *Server) endSession(sess *session) {
	sess.active = false
	if s.bindings[sess.fingerprint] == sess.id {
		delete(s.bindings, sess.fingerprint)
	}
}

func (s *Server) checkStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID de session requis")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Session non trouvée")
		return
	}
	if bearer(r) != sess.accessToken {
		writeError(w, http.StatusUnauthorized, "Jeton invalide")
		return
	}

	u := s.users[sess.username]
	sub := u.subscription()
	now := s.now()
	if sess.active && sub.IsExpiredAt(now) {
		s.endSession(sess)
	}
	sub.IsExpired = sub.IsExpiredAt(now)

	remaining := 0
	if sess.active {
		remaining = int(sub.RemainingAt(now).Minutes())
	}
	writeJSON(w, http.StatusOK, portalapi.StatusResponse{
		IsActive:      sess.active,
		RemainingTime: remaining,
		Subscription:  sub,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "ID de session requis")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[req.SessionID]
	if !ok {
		writeError(w, http.StatusNotFound, "Session non trouvée")
		return
	}
	s.endSession(sess)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "Jeton de rafraîchissement requis")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.refreshToken == req.Refresh && sess.active {
			sess.accessToken = newID()
			writeJSON(w, http.StatusOK, map[string]string{"access": sess.accessToken})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
}

func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request) {
	var req portalapi.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"phone_number": {"Ce champ est obligatoire."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.plans) > 0 {
		if _, err := subscription.FindPlan(s.plans, req.PlanID); err != nil {
			writeError(w, http.StatusBadRequest, "Forfait introuvable")
			return
		}
	}

	var script PaymentScript
	if len(s.scripts) > 0 {
		script = s.scripts[0]
		s.scripts = s.scripts[1:]
	}
	if script.TransactionID == "" {
		script.TransactionID = newID()
	}
	if script.Reference == "" {
		script.Reference = strings.ToUpper(script.TransactionID[:min(8, len(script.TransactionID))])
	}
	if script.USSDCode == "" {
		script.USSDCode = "#111*1*2*" + strconv.Itoa(req.PlanID) + "#"
	}

	s.transactions[script.TransactionID] = &transaction{script: script, planID: req.PlanID, phone: req.PhoneNumber}
	writeJSON(w, http.StatusOK, portalapi.InitiatePaymentResponse{
		TransactionID: portalapi.ID(script.TransactionID),
		Reference:     script.Reference,
		USSDCode:      script.USSDCode,
	})
}

func (s *Server) paymentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionID")

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction introuvable")
		return
	}

	resp := portalapi.PaymentStatusResponse{Status: tx.next()}
	confirmed := strings.EqualFold(string(resp.Status), string(portalapi.PaymentConfirmed)) ||
		strings.EqualFold(string(resp.Status), "SUCCESS")
	if confirmed && !tx.script.OmitCredentials {
		creds := tx.script.Credentials
		resp.WiFiCredentials = &creds
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) verifyReference(w http.ResponseWriter, r *http.Request) {
	var req portalapi.VerifyReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		writeError(w, http.StatusBadRequest, "Référence requise")
		return
	}

	s.mu.Lock()
	ref, ok := s.references[req.Reference]
	s.mu.Unlock()

	if !ok || (ref.PlanID != 0 && ref.PlanID != req.PlanID) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Référence de paiement invalide"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"username":        ref.Credentials.Username,
		"password":        ref.Credentials.Password,
		"expiration_date": ref.Credentials.ExpirationDate,
		"qr_code":         ref.Credentials.QRCode,
	})
}

func (s *Server) listPlans(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	plans := append([]subscription.Plan{}, s.plans...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "planID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Forfait introuvable")
		return
	}

	s.mu.Lock()
	plan, err := subscription.FindPlan(s.plans, id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, "Forfait introuvable")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
