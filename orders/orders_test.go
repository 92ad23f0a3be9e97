package orders

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/notify"
	"campus-canteen-api/realtime"
	"campus-canteen-api/realtime/realtimetest"
	"campus-canteen-api/store"
	"campus-canteen-api/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type queue struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (q *queue) Enqueue(msg notify.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return true
}

type fixture struct {
	svc     *Service
	rec     *realtimetest.Recorder
	mail    *queue
	student models.Principal
	other   models.Principal
	admin   models.Principal
	samosa  models.MenuItem
	juice   models.MenuItem
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := storetest.OpenDB(t)
	ctx := context.Background()
	accounts := &store.AccountRepo{DB: db}
	menu := &store.MenuRepo{DB: db}

	users := make([]models.User, 2)
	for i := range users {
		users[i] = models.User{
			Name: fmt.Sprintf("student%d", i), Email: fmt.Sprintf("s%d@mits.ac.in", i),
			Phone: "9000000000", Role: models.RoleStudent, StudentID: fmt.Sprintf("S%d", i), PasswordHash: "x",
		}
		require.NoError(t, accounts.CreateUser(ctx, &users[i]))
	}
	samosa := models.MenuItem{Name: "Samosa", Category: models.CategorySnacks, Price: 15, Available: true, Stock: models.DefaultStock}
	juice := models.MenuItem{Name: "Juice", Category: models.CategoryJuice, Price: 25, Available: true, Stock: models.DefaultStock}
	require.NoError(t, menu.Create(ctx, &samosa))
	require.NoError(t, menu.Create(ctx, &juice))

	rec := &realtimetest.Recorder{}
	mail := &queue{}
	return &fixture{
		svc: &Service{
			Orders:               &store.OrderRepo{DB: db},
			Menu:                 menu,
			Publisher:            rec,
			Mail:                 mail,
			Log:                  slog.New(slog.NewTextHandler(io.Discard, nil)),
			ListAllRequiresAdmin: true,
		},
		rec:     rec,
		mail:    mail,
		student: models.Principal{ID: users[0].ID, Role: models.RoleStudent},
		other:   models.Principal{ID: users[1].ID, Role: models.RoleStudent},
		admin:   models.Principal{ID: 1, Role: models.RoleAdmin},
		samosa:  samosa,
		juice:   juice,
	}
}

func (f *fixture) place(t *testing.T, p models.Principal, utr string) *models.Order {
	t.Helper()
	in := CreateInput{Items: []LineInput{{MenuItemID: f.samosa.ID, Quantity: 1}}}
	if utr != "" {
		in.PaymentMethod = models.PaymentUPI
		in.PaymentDetails = utr
	}
	o, err := f.svc.Create(context.Background(), p, in)
	require.NoError(t, err)
	return o
}

func TestCreate_TotalsAndEvents(t *testing.T) {
	f := setup(t)

	o, err := f.svc.Create(context.Background(), f.student, CreateInput{
		Items: []LineInput{
			{MenuItemID: f.samosa.ID, Quantity: 2},
			{MenuItemID: f.juice.ID, Quantity: 1},
		},
		DeliveryAddress: "Block A, Room 12",
	})
	require.NoError(t, err)

	assert.Equal(t, 55.0, o.Subtotal)
	assert.Equal(t, 20.0, o.DeliveryCharge)
	assert.Equal(t, 75.0, o.TotalAmount)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	assert.Nil(t, o.PaymentDetails)
	require.NotNil(t, o.User)
	assert.Equal(t, "s0@mits.ac.in", o.User.Email)
	require.Len(t, o.Items, 2)
	require.NotNil(t, o.Items[0].MenuItem)

	assert.Equal(t, []string{realtime.EventNewOrder}, f.rec.Names())
	require.Len(t, f.mail.msgs, 1)
	assert.Equal(t, "s0@mits.ac.in", f.mail.msgs[0].To)
}

func TestBroadcast_RedactsOwnerContact(t *testing.T) {
	f := setup(t)
	o := f.place(t, f.student, "")
	_, err := f.svc.SetStatus(context.Background(), f.admin, o.ID, models.StatusConfirmed)
	require.NoError(t, err)

	for _, name := range []string{realtime.EventNewOrder, realtime.EventOrderStatus} {
		ev, ok := f.rec.Last(name)
		require.True(t, ok, name)
		sent, ok := ev.Payload.(*models.Order)
		require.True(t, ok, name)
		require.NotNil(t, sent.User, name)
		assert.Equal(t, f.student.ID, sent.User.ID, name)
		assert.Equal(t, "student0", sent.User.Name, name)
		assert.Empty(t, sent.User.Email, name)
		assert.Empty(t, sent.User.Phone, name)
	}
	// the caller still gets the full record
	require.NotNil(t, o.User)
	assert.Equal(t, "s0@mits.ac.in", o.User.Email)
}

func TestBroadcast_OpenListKeepsOwnerContact(t *testing.T) {
	f := setup(t)
	f.svc.ListAllRequiresAdmin = false
	f.place(t, f.student, "")

	ev, ok := f.rec.Last(realtime.EventNewOrder)
	require.True(t, ok)
	sent := ev.Payload.(*models.Order)
	require.NotNil(t, sent.User)
	assert.Equal(t, "s0@mits.ac.in", sent.User.Email)
}

func TestCreate_PriceIsSnapshotted(t *testing.T) {
	f := setup(t)
	o := f.place(t, f.student, "")

	_, err := f.svc.Menu.Update(context.Background(), f.samosa.ID, map[string]any{"price": 99.0})
	require.NoError(t, err)

	reloaded, err := f.svc.Orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, reloaded.Items[0].Price)
	assert.Equal(t, 35.0, reloaded.TotalAmount)
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		p    models.Principal
		in   CreateInput
		want error
	}{
		{"no items", f.student, CreateInput{}, apperr.ErrValidation},
		{"zero quantity", f.student, CreateInput{Items: []LineInput{{MenuItemID: f.samosa.ID, Quantity: 0}}}, apperr.ErrValidation},
		{"unknown item", f.student, CreateInput{Items: []LineInput{{MenuItemID: 9999, Quantity: 1}}}, apperr.ErrNotFound},
		{"bad method", f.student, CreateInput{Items: []LineInput{{MenuItemID: f.samosa.ID, Quantity: 1}}, PaymentMethod: "Card"}, apperr.ErrValidation},
		{"malformed utr", f.student, CreateInput{Items: []LineInput{{MenuItemID: f.samosa.ID, Quantity: 1}}, PaymentMethod: models.PaymentUPI, PaymentDetails: "SHORT"}, apperr.ErrValidation},
		{"admin", f.admin, CreateInput{Items: []LineInput{{MenuItemID: f.samosa.ID, Quantity: 1}}}, apperr.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.p, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.svc.Create(ctx, f.student, CreateInput{Items: []LineInput{{MenuItemID: 9999, Quantity: 1}}})
	assert.Equal(t, "Menu item not found: 9999", apperr.Message(err))

	all, err := f.svc.Orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected orders are never persisted")
	assert.Empty(t, f.rec.Names())
}

func TestCreate_DuplicateUTR(t *testing.T) {
	f := setup(t)
	f.place(t, f.student, "ABC123XYZ789")

	_, err := f.svc.Create(context.Background(), f.other, CreateInput{
		Items:          []LineInput{{MenuItemID: f.juice.ID, Quantity: 1}},
		PaymentMethod:  models.PaymentUPI,
		PaymentDetails: "ABC123XYZ789",
	})
	require.ErrorIs(t, err, apperr.ErrDuplicateUTR)
	assert.Equal(t, 400, apperr.Status(err))
	assert.Equal(t, "UTR ID already used", apperr.Message(err))

	used, err := f.svc.CheckUTR(context.Background(), "ABC123XYZ789")
	require.NoError(t, err)
	assert.True(t, used)
	_, err = f.svc.CheckUTR(context.Background(), "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreate_ConcurrentUTRAdmitsOne(t *testing.T) {
	f := setup(t)
	var ok, dup atomic.Int32

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		p := f.student
		if i%2 == 1 {
			p = f.other
		}
		g.Go(func() error {
			_, err := f.svc.Create(context.Background(), p, CreateInput{
				Items:          []LineInput{{MenuItemID: f.samosa.ID, Quantity: 1}},
				PaymentMethod:  models.PaymentUPI,
				PaymentDetails: "RACE00000001",
			})
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.Status(err) == 400:
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(7), dup.Load())
}

func TestListing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.place(t, f.student, "")
	second := f.place(t, f.student, "")
	f.place(t, f.other, "")

	mine, err := f.svc.ListMine(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	none, err := f.svc.ListMine(ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ListAll(ctx, f.student)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	all, err := f.svc.ListAll(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	f.svc.ListAllRequiresAdmin = false
	all, err = f.svc.ListAll(ctx, f.student)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSetStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.place(t, f.student, "")

	_, err := f.svc.SetStatus(ctx, f.student, o.ID, models.StatusDelivered)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.SetStatus(ctx, f.admin, o.ID, "teleported")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.SetStatus(ctx, f.admin, 9999, models.StatusReady)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// admins may skip steps
	updated, err := f.svc.SetStatus(ctx, f.admin, o.ID, models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)

	ev, ok := f.rec.Last(realtime.EventTrackedStatus)
	require.True(t, ok)
	assert.Equal(t, realtime.OrderTopic(o.ID), ev.Topic)
	_, ok = f.rec.Last(realtime.EventOrderStatus)
	assert.True(t, ok)
}

func TestSetStatus_CancelledIsNotAssignable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, from := range []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusDelivered} {
		t.Run(string(from), func(t *testing.T) {
			o := f.place(t, f.student, "")
			if from != models.StatusPending {
				_, err := f.svc.SetStatus(ctx, f.admin, o.ID, from)
				require.NoError(t, err)
			}
			before := len(f.rec.Names())

			_, err := f.svc.SetStatus(ctx, f.admin, o.ID, models.StatusCancelled)
			assert.ErrorIs(t, err, apperr.ErrForbidden)

			got, err := f.svc.Orders.Get(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, from, got.Status)
			assert.Len(t, f.rec.Names(), before, "rejected assignment publishes nothing")
		})
	}
}

func TestRemove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("owner cancels pending", func(t *testing.T) {
		o := f.place(t, f.student, "")
		out, err := f.svc.Remove(ctx, f.student, o.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCancelled, out)

		got, err := f.svc.Orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		_, ok := f.rec.Last(realtime.EventOrderCancelled)
		assert.True(t, ok)

		_, err = f.svc.Remove(ctx, f.student, o.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden, "cancelled is terminal")
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		o := f.place(t, f.student, "")
		_, err := f.svc.Remove(ctx, f.other, o.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		assert.Equal(t, "Not authorized or order not delivered", apperr.Message(err))
	})

	t.Run("admin cannot cancel pending", func(t *testing.T) {
		o := f.place(t, f.student, "")
		_, err := f.svc.Remove(ctx, f.admin, o.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("confirmed cannot be removed", func(t *testing.T) {
		o := f.place(t, f.student, "")
		_, err := f.svc.SetStatus(ctx, f.admin, o.ID, models.StatusConfirmed)
		require.NoError(t, err)
		_, err = f.svc.Remove(ctx, f.student, o.ID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("delivered is deleted by owner or admin", func(t *testing.T) {
		for _, p := range []models.Principal{f.student, f.admin} {
			o := f.place(t, f.student, "")
			_, err := f.svc.SetStatus(ctx, f.admin, o.ID, models.StatusDelivered)
			require.NoError(t, err)

			out, err := f.svc.Remove(ctx, p, o.ID)
			require.NoError(t, err)
			assert.Equal(t, OutcomeRemoved, out)
			_, err = f.svc.Orders.Get(ctx, o.ID)
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		}
		_, ok := f.rec.Last(realtime.EventOrderRemoved)
		assert.True(t, ok)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.Remove(ctx, f.student, 9999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
