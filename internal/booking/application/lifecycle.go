package application

import (
	"context"
	"errors"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	ridedomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// CaptureTrigger define quando a autorização vira captura: no aceite do
// motorista ou na conclusão da carona.
type CaptureTrigger string

const (
	CaptureOnAccept   CaptureTrigger = "on_accept"
	CaptureOnComplete CaptureTrigger = "on_complete"
)

func ParseCaptureTrigger(s string) CaptureTrigger {
	if s == string(CaptureOnComplete) {
		return CaptureOnComplete
	}
	return CaptureOnAccept
}

// Lifecycle é a máquina de estados do booking: sequencia reserva de
// assentos e operações de pagamento mantendo os dois consistentes. Toda
// transição roda sob o lock do booking e cada caminho de falha carrega
// a compensação correspondente na mesma função.
type Lifecycle struct {
	bookings domain.BookingRepository
	rides    ridedomain.RideRepository
	ledger   ridedomain.SeatLedger
	gateway  domain.PaymentGateway
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data]
	idGen    pkgDomain.IDGenerator[string]
	logger   pkgApp.AppLogger
	capture  CaptureTrigger
	locks    *bookingLocks
}

func NewLifecycle(
	bookings domain.BookingRepository,
	rides ridedomain.RideRepository,
	ledger ridedomain.SeatLedger,
	gateway domain.PaymentGateway,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	idGen pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
	capture CaptureTrigger,
) *Lifecycle {
	return &Lifecycle{
		bookings: bookings,
		rides:    rides,
		ledger:   ledger,
		gateway:  gateway,
		eventBus: eventBus,
		idGen:    idGen,
		logger:   logger,
		capture:  capture,
		locks:    newBookingLocks(),
	}
}

// Create reserva assentos e autoriza o pagamento, nessa ordem: assentos
// são o recurso limitante e um hold de pagamento não deve ser criado
// para um booking que não cabe. Falha de autorização libera os assentos
// imediatamente; nenhum booking pendente fantasma sobrevive.
func (l *Lifecycle) Create(ctx context.Context, data CreateBookingData) (domain.Booking, error) {
	key := data.IdempotencyKey
	if key == "" {
		key = l.idGen()
	}

	// Criações duplicadas com a mesma chave serializam aqui: o perdedor
	// encontra o booking do vencedor na consulta abaixo.
	release := l.locks.acquire("create:" + key)
	defer release()

	existing, err := l.bookings.FindByIdempotencyKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if err != domain.ErrBookingNotFound {
		return domain.Booking{}, err
	}

	ride, err := l.rides.FindByID(ctx, data.RideID)
	if err != nil {
		return domain.Booking{}, err
	}

	bookingID := l.idGen()
	if _, err := l.ledger.Reserve(ctx, ride.ID, bookingID, data.Seats); err != nil {
		return domain.Booking{}, err
	}

	now := time.Now().UTC()
	booking := domain.Booking{
		ID:               bookingID,
		RideID:           ride.ID,
		RiderID:          data.RiderID,
		Seats:            data.Seats,
		Amount:           ride.PricePerSeat * int64(data.Seats),
		PaymentMethodRef: data.PaymentMethodRef,
		PaymentStatus:    domain.PaymentStatusPending,
		BookingStatus:    domain.BookingStatusPending,
		IdempotencyKey:   key,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ref, err := l.gateway.Authorize(ctx, bookingID, booking.Amount, data.PaymentMethodRef, key+":authorize")
	if err != nil {
		// Compensação: pagamento recusado nunca vira booking vivo.
		if relErr := l.ledger.Release(ctx, bookingID); relErr != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos após falha de autorização", relErr, map[string]interface{}{"booking_id": bookingID})
		}
		booking.PaymentStatus = domain.PaymentStatusFailed
		booking.BookingStatus = domain.BookingStatusCancelled
		if saveErr := l.bookings.Save(ctx, booking); saveErr != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao persistir booking recusado", saveErr, map[string]interface{}{"booking_id": bookingID})
		}
		return domain.Booking{}, err
	}

	booking.PaymentIntentRef = ref
	booking.PaymentStatus = domain.PaymentStatusAuthorized

	if err := l.bookings.Save(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrConflictingOperation) {
			// Outro processo venceu a corrida pela mesma chave. O hold
			// de pagamento é compartilhado pela chave e pertence ao
			// vencedor; só os assentos desta tentativa voltam.
			if relErr := l.ledger.Release(ctx, bookingID); relErr != nil {
				pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos da criação duplicada", relErr, map[string]interface{}{"booking_id": bookingID})
			}
			return l.bookings.FindByIdempotencyKey(ctx, key)
		}
		// Compensação: desfaz o hold e devolve os assentos.
		if _, refundErr := l.gateway.Refund(ctx, bookingID, ref, booking.Amount, key+":void"); refundErr != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao estornar autorização órfã", refundErr, map[string]interface{}{"booking_id": bookingID})
		}
		if relErr := l.ledger.Release(ctx, bookingID); relErr != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos", relErr, map[string]interface{}{"booking_id": bookingID})
		}
		return domain.Booking{}, err
	}

	l.publish(ctx, event.NewBookingCreated(event.Data{
		EventID:   l.idGen(),
		Audience:  event.AudienceBoth,
		BookingID: booking.ID,
		RideID:    ride.ID,
		DriverID:  ride.DriverID,
		RiderID:   booking.RiderID,
		Seats:     booking.Seats,
		Amount:    booking.Amount,
	}))

	pkgApp.LogInfo(ctx, l.logger, "booking criado", map[string]interface{}{
		"booking_id": booking.ID,
		"ride_id":    ride.ID,
		"seats":      booking.Seats,
	})
	return booking, nil
}

// Accept confirma o booking. Exige pending+authorized; qualquer outra
// combinação falha com ErrInvalidTransition sem chamada externa. Com
// captura no aceite, uma autorização expirada passa por exatamente uma
// reautorização antes de rejeitar.
func (l *Lifecycle) Accept(ctx context.Context, data BookingActionData) error {
	release := l.locks.acquire(data.BookingID)
	defer release()

	booking, err := l.bookings.FindByID(ctx, data.BookingID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != domain.BookingStatusPending || booking.PaymentStatus != domain.PaymentStatusAuthorized {
		return domain.ErrInvalidTransition
	}

	ride, err := l.rides.FindByID(ctx, booking.RideID)
	if err != nil {
		return err
	}
	if data.ActorID != "" && ride.DriverID != data.ActorID {
		return ridedomain.ErrNotRideDriver
	}

	key := data.IdempotencyKey
	if key == "" {
		key = l.idGen()
	}

	if l.capture == CaptureOnAccept {
		if err := l.captureWithRecovery(ctx, &booking, data.PaymentMethodRef, key); err != nil {
			// O aceite não prossegue sem um hold vivo: rejeita e
			// devolve os assentos.
			booking.BookingStatus = domain.BookingStatusRejected
			booking.PaymentStatus = domain.PaymentStatusFailed
			if relErr := l.ledger.Release(ctx, booking.ID); relErr != nil {
				pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos após falha de captura", relErr, map[string]interface{}{"booking_id": booking.ID})
			}
			if updErr := l.bookings.Update(ctx, booking); updErr != nil {
				pkgApp.LogError(ctx, l.logger, "erro ao persistir rejeição", updErr, map[string]interface{}{"booking_id": booking.ID})
			}
			l.publish(ctx, event.NewBookingRejected(event.Data{
				EventID:   l.idGen(),
				Audience:  event.AudienceRider,
				BookingID: booking.ID,
				RideID:    booking.RideID,
				DriverID:  ride.DriverID,
				RiderID:   booking.RiderID,
				Reason:    "payment_failed",
			}))
			return err
		}
		booking.PaymentStatus = domain.PaymentStatusCaptured
	}

	booking.BookingStatus = domain.BookingStatusConfirmed
	booking.UpdatedAt = time.Now().UTC()

	if err := l.ledger.Confirm(ctx, booking.ID); err != nil {
		pkgApp.LogError(ctx, l.logger, "erro ao confirmar reserva de assentos", err, map[string]interface{}{"booking_id": booking.ID})
	}
	if err := l.bookings.Update(ctx, booking); err != nil {
		return err
	}

	l.publish(ctx, event.NewBookingAccepted(event.Data{
		EventID:   l.idGen(),
		Audience:  event.AudienceRider,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		DriverID:  ride.DriverID,
		RiderID:   booking.RiderID,
		Amount:    booking.Amount,
	}))

	pkgApp.LogInfo(ctx, l.logger, "booking aceito", map[string]interface{}{"booking_id": booking.ID})
	return nil
}

// captureWithRecovery captura o hold corrente; se a janela expirou,
// tenta exatamente uma reautorização e captura de novo.
func (l *Lifecycle) captureWithRecovery(ctx context.Context, booking *domain.Booking, newMethodRef, key string) error {
	err := l.gateway.Capture(ctx, booking.ID, booking.PaymentIntentRef, key+":capture")
	if err == nil {
		return nil
	}
	if err != domain.ErrCaptureExpired {
		return err
	}

	methodRef := newMethodRef
	if methodRef == "" {
		methodRef = booking.PaymentMethodRef
	}

	newRef, reauthErr := l.gateway.RetryAuthorization(ctx, booking.ID, booking.Amount, methodRef, key+":reauthorize")
	if reauthErr != nil {
		return reauthErr
	}

	booking.PaymentIntentRef = newRef
	return l.gateway.Capture(ctx, booking.ID, newRef, key+":recapture")
}

// Reject estorna o hold autorizado e devolve os assentos. Se o estorno
// falhar nenhuma transição é aplicada; o chamador repete com a mesma
// chave.
func (l *Lifecycle) Reject(ctx context.Context, data BookingActionData) error {
	release := l.locks.acquire(data.BookingID)
	defer release()

	booking, err := l.bookings.FindByID(ctx, data.BookingID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != domain.BookingStatusPending || booking.PaymentStatus != domain.PaymentStatusAuthorized {
		return domain.ErrInvalidTransition
	}

	ride, err := l.rides.FindByID(ctx, booking.RideID)
	if err != nil {
		return err
	}
	if data.ActorID != "" && ride.DriverID != data.ActorID {
		return ridedomain.ErrNotRideDriver
	}

	key := data.IdempotencyKey
	if key == "" {
		key = l.idGen()
	}

	refunded, err := l.gateway.Refund(ctx, booking.ID, booking.PaymentIntentRef, booking.Amount, key+":refund")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	booking.BookingStatus = domain.BookingStatusRejected
	booking.PaymentStatus = domain.PaymentStatusRefunded
	booking.RefundAmount = refunded
	booking.RefundedAt = &now
	booking.UpdatedAt = now

	if relErr := l.ledger.Release(ctx, booking.ID); relErr != nil {
		pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos na rejeição", relErr, map[string]interface{}{"booking_id": booking.ID})
	}
	if err := l.bookings.Update(ctx, booking); err != nil {
		return err
	}

	reason := data.Reason
	if reason == "" {
		reason = "driver_rejected"
	}
	l.publish(ctx, event.NewBookingRejected(event.Data{
		EventID:      l.idGen(),
		Audience:     event.AudienceRider,
		BookingID:    booking.ID,
		RideID:       booking.RideID,
		DriverID:     ride.DriverID,
		RiderID:      booking.RiderID,
		RefundAmount: refunded,
		Reason:       reason,
	}))

	pkgApp.LogInfo(ctx, l.logger, "booking rejeitado", map[string]interface{}{"booking_id": booking.ID})
	return nil
}

// Cancel cobre os dois momentos de cancelamento: antes do aceite
// (estorno do hold) e depois (reembolso da captura, integral antes da
// carona começar, metade em andamento).
func (l *Lifecycle) Cancel(ctx context.Context, data BookingActionData) error {
	release := l.locks.acquire(data.BookingID)
	defer release()

	booking, err := l.bookings.FindByID(ctx, data.BookingID)
	if err != nil {
		return err
	}

	key := data.IdempotencyKey
	if key == "" {
		key = l.idGen()
	}

	switch booking.BookingStatus {
	case domain.BookingStatusPending, domain.BookingStatusConfirmed:
		// segue abaixo
	default:
		return domain.ErrInvalidTransition
	}

	ride, err := l.rides.FindByID(ctx, booking.RideID)
	if err != nil {
		return err
	}

	refundAmount := booking.Amount
	finalPayment := domain.PaymentStatusRefunded

	switch booking.PaymentStatus {
	case domain.PaymentStatusAuthorized:
		// Estorno de uma autorização não capturada.
	case domain.PaymentStatusCaptured:
		if ride.Status == ridedomain.RideStatusInProgress {
			// Cancelamento no meio da carona: reembolso parcial.
			refundAmount = booking.Amount / 2
			finalPayment = domain.PaymentStatusPartiallyRefunded
		}
	default:
		return domain.ErrInvalidTransition
	}

	refunded, err := l.gateway.Refund(ctx, booking.ID, booking.PaymentIntentRef, refundAmount, key+":refund")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	booking.BookingStatus = domain.BookingStatusCancelled
	booking.PaymentStatus = finalPayment
	booking.RefundAmount = refunded
	booking.RefundedAt = &now
	booking.UpdatedAt = now

	if relErr := l.ledger.Release(ctx, booking.ID); relErr != nil {
		pkgApp.LogError(ctx, l.logger, "erro ao liberar assentos no cancelamento", relErr, map[string]interface{}{"booking_id": booking.ID})
	}
	if err := l.bookings.Update(ctx, booking); err != nil {
		return err
	}

	reason := data.Reason
	if reason == "" {
		reason = "cancelled"
	}
	l.publish(ctx, event.NewBookingCancelled(event.Data{
		EventID:      l.idGen(),
		Audience:     event.AudienceBoth,
		BookingID:    booking.ID,
		RideID:       booking.RideID,
		DriverID:     ride.DriverID,
		RiderID:      booking.RiderID,
		RefundAmount: refunded,
		Reason:       reason,
	}))

	pkgApp.LogInfo(ctx, l.logger, "booking cancelado", map[string]interface{}{
		"booking_id":    booking.ID,
		"refund_amount": refunded,
	})
	return nil
}

// Complete fecha um booking confirmado quando a carona termina. Com
// captura na conclusão, captura agora. O serviço já foi prestado, então
// uma falha de captura aqui não bloqueia a conclusão: vira item de
// reconciliação para retry manual via RetryPayment.
func (l *Lifecycle) Complete(ctx context.Context, bookingID string) error {
	release := l.locks.acquire(bookingID)
	defer release()

	booking, err := l.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != domain.BookingStatusConfirmed {
		return domain.ErrInvalidTransition
	}

	reason := ""
	if booking.PaymentStatus == domain.PaymentStatusAuthorized {
		if err := l.gateway.Capture(ctx, booking.ID, booking.PaymentIntentRef, booking.ID+":complete-capture"); err != nil {
			pkgApp.LogError(ctx, l.logger, "item de reconciliação: captura falhou em carona concluída", err, map[string]interface{}{
				"booking_id": booking.ID,
				"ride_id":    booking.RideID,
			})
			booking.PaymentStatus = domain.PaymentStatusFailed
			reason = "payment_failed"
		} else {
			booking.PaymentStatus = domain.PaymentStatusCaptured
		}
	}

	booking.BookingStatus = domain.BookingStatusCompleted
	booking.UpdatedAt = time.Now().UTC()

	if err := l.bookings.Update(ctx, booking); err != nil {
		return err
	}

	l.publish(ctx, event.NewBookingCompleted(event.Data{
		EventID:   l.idGen(),
		Audience:  event.AudienceRider,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		RiderID:   booking.RiderID,
		Amount:    booking.Amount,
		Reason:    reason,
	}))

	return nil
}

// RetryPayment é o caminho explícito de recuperação quando o método de
// pagamento original falhou. Em bookings já concluídos a nova
// autorização é capturada na sequência.
func (l *Lifecycle) RetryPayment(ctx context.Context, data BookingActionData) error {
	release := l.locks.acquire(data.BookingID)
	defer release()

	booking, err := l.bookings.FindByID(ctx, data.BookingID)
	if err != nil {
		return err
	}
	if booking.PaymentStatus != domain.PaymentStatusFailed {
		return domain.ErrInvalidTransition
	}
	if booking.BookingStatus == domain.BookingStatusRejected || booking.BookingStatus == domain.BookingStatusCancelled {
		return domain.ErrInvalidTransition
	}

	methodRef := data.PaymentMethodRef
	if methodRef == "" {
		methodRef = booking.PaymentMethodRef
	}

	key := data.IdempotencyKey
	if key == "" {
		key = l.idGen()
	}

	newRef, err := l.gateway.RetryAuthorization(ctx, booking.ID, booking.Amount, methodRef, key)
	if err != nil {
		return err
	}

	booking.PaymentIntentRef = newRef
	booking.PaymentMethodRef = methodRef
	booking.PaymentStatus = domain.PaymentStatusAuthorized

	if booking.BookingStatus == domain.BookingStatusCompleted {
		if capErr := l.gateway.Capture(ctx, booking.ID, newRef, key+":capture"); capErr != nil {
			pkgApp.LogError(ctx, l.logger, "captura pós-retry falhou", capErr, map[string]interface{}{"booking_id": booking.ID})
		} else {
			booking.PaymentStatus = domain.PaymentStatusCaptured
		}
	}

	booking.UpdatedAt = time.Now().UTC()
	if err := l.bookings.Update(ctx, booking); err != nil {
		return err
	}

	l.publish(ctx, event.NewPaymentRetried(event.Data{
		EventID:   l.idGen(),
		Audience:  event.AudienceRider,
		BookingID: booking.ID,
		RideID:    booking.RideID,
		RiderID:   booking.RiderID,
		Amount:    booking.Amount,
	}))

	pkgApp.LogInfo(ctx, l.logger, "pagamento reautorizado", map[string]interface{}{"booking_id": booking.ID})
	return nil
}

// CompleteForRide completa todos os bookings confirmados da carona.
// Melhor esforço: falhas individuais são registradas e não interrompem
// os demais.
func (l *Lifecycle) CompleteForRide(ctx context.Context, rideID string) error {
	bookings, err := l.bookings.FindByRideAndStatus(ctx, rideID, domain.BookingStatusConfirmed)
	if err != nil {
		return err
	}

	for _, b := range bookings {
		if err := l.Complete(ctx, b.ID); err != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao completar booking da carona", err, map[string]interface{}{
				"booking_id": b.ID,
				"ride_id":    rideID,
			})
		}
	}

	return nil
}

// CancelForRide cancela todos os bookings não terminais da carona com
// os reembolsos correspondentes.
func (l *Lifecycle) CancelForRide(ctx context.Context, rideID, reason string) error {
	bookings, err := l.bookings.FindByRideAndStatus(ctx, rideID, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	if err != nil {
		return err
	}

	for _, b := range bookings {
		if err := l.Cancel(ctx, BookingActionData{BookingID: b.ID, Reason: reason}); err != nil {
			pkgApp.LogError(ctx, l.logger, "erro ao cancelar booking da carona", err, map[string]interface{}{
				"booking_id": b.ID,
				"ride_id":    rideID,
			})
		}
	}

	return nil
}

func (l *Lifecycle) publish(ctx context.Context, evt pkgDomain.Event[event.Data]) {
	if err := l.eventBus.Publish(ctx, evt); err != nil {
		pkgApp.LogError(ctx, l.logger, "erro ao publicar evento de booking", err, map[string]interface{}{
			"event_name": evt.EventName(),
		})
	}
}
