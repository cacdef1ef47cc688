// Package telegramtest provides an in-process fake of the Telegram Bot API
// for handler and end-to-end tests.
package telegramtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const Token = "123456:TEST"

// Message is one sendMessage call received by the fake.
type Message struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup string
}

// Server records outbound bot calls.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	messages       []Message
	webhookURL     string
	webhookSecret  string
	callbacks      int
	setWebhookFail bool
	sendFail       bool
}

// NewServer starts the fake and closes it when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the tgbotapi API endpoint format for this server.
func (s *Server) Endpoint() string { return s.URL + "/bot%s/%s" }

// RefuseSetWebhook makes setWebhook answer ok=false.
func (s *Server) RefuseSetWebhook() {
	s.mu.Lock()
	s.setWebhookFail = true
	s.mu.Unlock()
}

// FailSends makes sendMessage answer ok=false.
func (s *Server) FailSends() {
	s.mu.Lock()
	s.sendFail = true
	s.mu.Unlock()
}

func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// MessagesTo filters Messages by chat.
func (s *Server) MessagesTo(chatID int64) []Message {
	var out []Message
	for _, m := range s.Messages() {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (s *Server) Webhook() (url, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhookURL, s.webhookSecret
}

func (s *Server) CallbacksAnswered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callbacks
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "bot"+Token {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	_ = r.ParseForm()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch parts[1] {
	case "getMe":
		writeOK(w, map[string]interface{}{"id": 1, "is_bot": true, "first_name": "relay", "username": "relay_bot"})
	case "sendMessage":
		if s.sendFail {
			writeErr(w, http.StatusBadRequest, "Bad Request: chat not found")
			return
		}
		chatID, _ := strconv.ParseInt(r.PostForm.Get("chat_id"), 10, 64)
		s.messages = append(s.messages, Message{
			ChatID:      chatID,
			Text:        r.PostForm.Get("text"),
			ParseMode:   r.PostForm.Get("parse_mode"),
			ReplyMarkup: r.PostForm.Get("reply_markup"),
		})
		writeOK(w, map[string]interface{}{
			"message_id": len(s.messages),
			"date":       0,
			"chat":       map[string]interface{}{"id": chatID, "type": "private"},
		})
	case "answerCallbackQuery":
		s.callbacks++
		writeOK(w, true)
	case "setWebhook":
		if s.setWebhookFail {
			writeErr(w, http.StatusBadRequest, "Bad Request: bad webhook: HTTPS url must be provided for webhook")
			return
		}
		s.webhookURL = r.PostForm.Get("url")
		s.webhookSecret = r.PostForm.Get("secret_token")
		writeOK(w, true)
	case "getWebhookInfo":
		writeOK(w, map[string]interface{}{"url": s.webhookURL, "has_custom_certificate": false, "pending_update_count": 0})
	default:
		writeErr(w, http.StatusNotFound, "Not Found: method not found")
	}
}

func writeOK(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
}

func writeErr(w http.ResponseWriter, code int, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error_code": code, "description": desc})
}

// CommandUpdate builds the JSON of an update carrying a bot command from chatID.
func CommandUpdate(updateID int, chatID int64, command string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"update_id": updateID,
		"message": map[string]interface{}{
			"message_id": updateID,
			"date":       0,
			"chat":       map[string]interface{}{"id": chatID, "type": "private"},
			"from":       map[string]interface{}{"id": chatID, "is_bot": false, "first_name": "tester"},
			"text":       command,
			"entities": []map[string]interface{}{
				{"type": "bot_command", "offset": 0, "length": len(strings.Fields(command)[0])},
			},
		},
	})
	return string(b)
}

// CallbackUpdate builds the JSON of an inline-button press in chatID.
func CallbackUpdate(updateID int, chatID int64, data string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"update_id": updateID,
		"callback_query": map[string]interface{}{
			"id":   "cb" + strconv.Itoa(updateID),
			"from": map[string]interface{}{"id": chatID, "is_bot": false, "first_name": "tester"},
			"message": map[string]interface{}{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]interface{}{"id": chatID, "type": "private"},
			},
			"chat_instance": "1",
			"data":          data,
		},
	})
	return string(b)
}
