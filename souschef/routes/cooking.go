package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"souschef/config"
	"souschef/controllers"
	"souschef/middlewares"
	"souschef/services/cooking"
	"souschef/utils/types"
)

func CookingRoutes(ctrl *controllers.CookingController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /cooking/sessions : start a session for a recipe
		gr.Post("/sessions", func(w http.ResponseWriter, r *http.Request) {
			var req types.StartSessionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			resp, err := ctrl.StartSession(r.Context(), clientKey(r), req.RecipeID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// POST /cooking/sessions/{session_id}/message : synchronous turn
		gr.Post("/sessions/{session_id}/message", func(w http.ResponseWriter, r *http.Request) {
			var msg types.CookingMessage
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			sessionID := chi.URLParam(r, "session_id")
			reply, err := ctrl.SendMessage(r.Context(), clientKey(r), sessionID, msg.Text)
			if err != nil {
				writeError(w, r, err)
				return
			}
			json.NewEncoder(w).Encode(types.CookingResponse{Text: reply.Content})
		})

		// POST /cooking/sessions/{session_id}/stream : SSE turn
		gr.Post("/sessions/{session_id}/stream", func(w http.ResponseWriter, r *http.Request) {
			var msg types.CookingMessage
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				http.Error(w, "invalid_input", http.StatusBadRequest)
				return
			}
			sessionID := chi.URLParam(r, "session_id")
			events, err := ctrl.StreamMessage(r.Context(), clientKey(r), sessionID, msg.Text)
			if err != nil {
				writeError(w, r, err)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			// Disable nginx buffering
			w.Header().Set("X-Accel-Buffering", "no")
			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "internal_error", http.StatusInternalServerError)
				return
			}

			for ev := range events {
				writeSSE(w, ev)
				flusher.Flush()
			}
		})

		// GET /cooking/sessions/{session_id} : session info
		gr.Get("/sessions/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			info, err := ctrl.SessionInfo(chi.URLParam(r, "session_id"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			json.NewEncoder(w).Encode(info)
		})

		// DELETE /cooking/sessions/{session_id} : end a session
		gr.Delete("/sessions/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.EndSession(chi.URLParam(r, "session_id")); err != nil {
				writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// Websocket variant of the streaming turn. Auth rides in the first frame
	// because browsers cannot set headers on a websocket handshake.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token     string `json:"token"`
			SessionID string `json:"session_id"`
			Text      string `json:"text"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid_input"}`))
			return
		}

		userID, ok := middlewares.ParseUserToken(cfg, input.Token)
		if !ok {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid_token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		events, err := ctrl.StreamMessage(ctx, strconv.Itoa(userID), input.SessionID, input.Text)
		if err != nil {
			payload, _ := json.Marshal(map[string]string{"error": errorKind(err)})
			conn.Write(ctx, websocket.MessageText, payload)
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}

		for ev := range events {
			payload, perr := json.Marshal(eventPayload(ev))
			if perr != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}

// eventPayload is the wire shape shared by SSE and websocket streams:
// {"token": t}* then {"done": true} or {"error": kind}.
func eventPayload(ev cooking.StreamEvent) map[string]interface{} {
	switch {
	case ev.Err != nil:
		return map[string]interface{}{"error": errorKind(ev.Err)}
	case ev.Done:
		return map[string]interface{}{"done": true}
	default:
		return map[string]interface{}{"token": ev.Token}
	}
}

func writeSSE(w http.ResponseWriter, ev cooking.StreamEvent) {
	payload, err := json.Marshal(eventPayload(ev))
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// clientKey identifies the caller for rate limiting: the authenticated user.
func clientKey(r *http.Request) string {
	userID, _ := r.Context().Value(middlewares.UserIDKey).(int)
	return strconv.Itoa(userID)
}
