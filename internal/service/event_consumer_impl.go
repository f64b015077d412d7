package service

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"time"

	"github.com/alimikegami/quicart/internal/dto"
	"github.com/alimikegami/quicart/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

var (
	passwordResetTemplate = template.Must(template.New("reset").Parse(
		`<p>Use this code to reset your password:</p><p><b>{{.Token}}</b></p><p>If you did not ask for a reset you can ignore this email.</p>`))
	orderPlacedTemplate = template.Must(template.New("order").Parse(
		`<p>Hi {{.Name}}, your order #{{.Event.OrderNumber}} is confirmed.</p><ul>{{range .Event.Items}}<li>{{.Quantity}} x {{.Name}}{{if ne .Size "N/A"}} ({{.Size}}){{end}}</li>{{end}}</ul>`))
)

type EventConsumerImpl struct {
	reader   MessageReader
	mailer   Mailer
	profiles repository.ProfileRepository
}

func CreateEventConsumer(reader MessageReader, mailer Mailer, profiles repository.ProfileRepository) EventConsumer {
	return &EventConsumerImpl{reader: reader, mailer: mailer, profiles: profiles}
}

func (s *EventConsumerImpl) ConsumeEvent(ctx context.Context) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Str("component", "ConsumeEvent").Msg("")
			time.Sleep(time.Second)
			continue
		}

		if err := s.handleMessage(ctx, msg.Value); err != nil {
			log.Error().Err(err).Str("component", "ConsumeEvent").Msg("")
		}
	}
}

func (s *EventConsumerImpl) handleMessage(ctx context.Context, value []byte) error {
	var receivedMsg struct {
		EventType string          `json:"event_type"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(value, &receivedMsg); err != nil {
		return err
	}

	switch receivedMsg.EventType {
	case dto.EventPasswordResetRequested:
		var event dto.PasswordResetRequestedEvent
		if err := json.Unmarshal(receivedMsg.Data, &event); err != nil {
			return err
		}

		var body bytes.Buffer
		if err := passwordResetTemplate.Execute(&body, event); err != nil {
			return err
		}

		return s.mailer.Send(event.Email, "Reset your password", body.String())
	case dto.EventOrderPlaced:
		var event dto.OrderPlacedEvent
		if err := json.Unmarshal(receivedMsg.Data, &event); err != nil {
			return err
		}

		profile, err := s.profiles.GetProfile(ctx, event.UserID)
		if err != nil {
			return err
		}

		var body bytes.Buffer
		err = orderPlacedTemplate.Execute(&body, struct {
			Name  string
			Event dto.OrderPlacedEvent
		}{Name: profile.Name, Event: event})
		if err != nil {
			return err
		}

		return s.mailer.Send(profile.Email, "Your order is confirmed", body.String())
	case dto.EventProductAdded:
		log.Info().Str("component", "ConsumeEvent").RawJSON("product", receivedMsg.Data).Msg("product added")
		return nil
	default:
		log.Warn().Str("component", "ConsumeEvent").Str("event_type", receivedMsg.EventType).Msg("unknown event type")
		return nil
	}
}
