package realtime

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/metrics"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/models"
	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/store"
)

// Server event names on the realtime surface.
const (
	EventMessageReceived = "message-received"
	EventHistory         = "history"
	EventError           = "error"
)

// ValidationError is a user-facing rejection. The message is shown verbatim
// to the originating connection and never broadcast.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PersistenceError signals the message store rejected or failed the write.
// The sender sees a generic failure and must resend; nothing was fanned out.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }
func (e *PersistenceError) Unwrap() error { return e.Err }

// User-facing rejection messages (the product UI is Spanish-language).
var (
	errInvalidSender    = &ValidationError{Message: "Remitente inválido"}
	errInvalidRecipient = &ValidationError{Message: "Destinatario inválido"}
	errEmptyBody        = &ValidationError{Message: "Mensaje vacío"}
	errHistoryIDs       = &ValidationError{Message: "Faltan identificadores para el historial"}
)

const sendFailedMessage = "No se pudo enviar el mensaje"

// Router validates and routes outbound direct messages: persist first, then
// fan out the stored message to every connection owned by the sender or the
// recipient. Fan-out never begins for a message that is not durably stored.
type Router struct {
	store    store.MessageStore
	registry *Registry
	logger   zerolog.Logger
}

// NewRouter creates a broadcast router over the given registry and store.
func NewRouter(st store.MessageStore, registry *Registry, logger zerolog.Logger) *Router {
	return &Router{
		store:    st,
		registry: registry,
		logger:   logger.With().Str("component", "router").Logger(),
	}
}

// SendDirectMessage persists one direct message and delivers it to all live
// connections of both parties. The returned error is either a
// *ValidationError or a *PersistenceError; in both cases nothing was
// delivered anywhere. Delivery itself is fire-and-forget per connection: a
// closed or saturated connection is skipped and does not fail the send.
//
// Self-messages (sender == recipient) are accepted; the product has never
// decided whether to forbid them, so the permissive behavior stands.
func (rt *Router) SendDirectMessage(ctx context.Context, senderID, recipientID, body string) (*models.StoredMessage, error) {
	if senderID == "" || senderID == IdentityUnknown {
		metrics.MessagesRejected.WithLabelValues("validation").Inc()
		return nil, errInvalidSender
	}
	if recipientID == "" || recipientID == IdentityUnknown {
		metrics.MessagesRejected.WithLabelValues("validation").Inc()
		return nil, errInvalidRecipient
	}
	if strings.TrimSpace(body) == "" {
		metrics.MessagesRejected.WithLabelValues("validation").Inc()
		return nil, errEmptyBody
	}

	msg, err := rt.store.SaveMessage(ctx, senderID, recipientID, body)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues("persistence").Inc()
		rt.logger.Error().
			Err(err).
			Str("sender", senderID).
			Str("recipient", recipientID).
			Msg("message persistence failed")
		return nil, &PersistenceError{Message: sendFailedMessage, Err: err}
	}
	metrics.MessagesSent.Inc()

	rt.fanOut(msg)
	return msg, nil
}

// fanOut delivers the stored message to a snapshot of both parties'
// connections. The snapshot is taken under the registry lock, so a
// concurrent unregister cannot corrupt iteration; it may still win the race
// and close a connection mid-loop, which deliver absorbs as a skip.
func (rt *Router) fanOut(msg *models.StoredMessage) {
	conns := rt.registry.ConnsFor(msg.SenderID, msg.RecipientID)

	ev := ServerEvent{Event: EventMessageReceived, Data: msg}

	delivered, dropped := 0, 0
	for _, c := range conns {
		if c.Deliver(ev) {
			delivered++
		} else {
			dropped++
		}
	}
	metrics.MessagesDelivered.Add(float64(delivered))
	metrics.MessagesDropped.Add(float64(dropped))

	rt.logger.Debug().
		Str("message_id", msg.ID).
		Str("sender", msg.SenderID).
		Str("recipient", msg.RecipientID).
		Int("delivered", delivered).
		Int("dropped", dropped).
		Msg("message fanned out")
}

// History returns the full transcript between requester and peer, oldest
// first. The call is repeatable: the same pair yields the same sequence plus
// whatever arrived since.
func (rt *Router) History(ctx context.Context, requesterID, peerID string) ([]models.StoredMessage, error) {
	if requesterID == "" || requesterID == IdentityUnknown ||
		peerID == "" || peerID == IdentityUnknown {
		return nil, errHistoryIDs
	}

	msgs, err := rt.store.History(ctx, requesterID, peerID)
	if err != nil {
		rt.logger.Error().
			Err(err).
			Str("requester", requesterID).
			Str("peer", peerID).
			Msg("history read failed")
		return nil, &PersistenceError{Message: "No se pudo recuperar el historial", Err: err}
	}
	return msgs, nil
}
