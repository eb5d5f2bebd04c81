package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cautiva/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, record *models.AuditRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) AuditFailed(ctx context.Context, entry Entry, cause error) error {
	args := m.Called(ctx, entry, cause)
	return args.Error(0)
}

func sampleTx(typ models.TransactionType) models.Transaction {
	return models.Transaction{
		ID:          "t1",
		Type:        typ,
		Amount:      decimal.RequireFromString("150.5"),
		Description: "limpieza - productos",
		Category:    "limpieza",
		Date:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		action Action
		typ    models.TransactionType
		want   string
	}{
		{ActionCreate, models.TypeDeposit, "Agregó depósito"},
		{ActionCreate, models.TypeExpense, "Agregó gasto"},
		{ActionEdit, models.TypeDeposit, "Editó depósito"},
		{ActionEdit, models.TypeExpense, "Editó gasto"},
		{ActionDelete, models.TypeDeposit, "Eliminó depósito"},
		{ActionDelete, models.TypeExpense, "Eliminó gasto"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.action, tt.typ))
	}
}

func TestEntryShapes(t *testing.T) {
	before := sampleTx(models.TypeExpense)
	after := before
	after.Amount = decimal.NewFromInt(200)

	create := CreateEntry("Administrador", before)
	assert.Equal(t, "Agregó gasto", create.Accion)
	assert.Nil(t, create.Antes)
	assert.Nil(t, create.Despues)
	assert.Nil(t, create.Eliminado)

	edit := EditEntry("Administrador", before, after)
	assert.Equal(t, "Editó gasto", edit.Accion)
	require.NotNil(t, edit.Antes)
	require.NotNil(t, edit.Despues)
	assert.Nil(t, edit.Eliminado)
	assert.True(t, edit.Antes.Amount.Equal(decimal.RequireFromString("150.5")))
	assert.True(t, edit.Despues.Amount.Equal(decimal.NewFromInt(200)))

	del := DeleteEntry("Administrador", before)
	assert.Equal(t, "Eliminó gasto", del.Accion)
	require.NotNil(t, del.Eliminado)
	assert.Equal(t, "limpieza", del.Eliminado.Category)
	assert.Nil(t, del.Antes)

	rec := del.Record()
	assert.Equal(t, "Administrador", rec.Usuario)
	assert.Same(t, del.Eliminado, rec.Eliminado)
}

func TestRecorder_Record(t *testing.T) {
	store := new(mockStore)
	store.On("Append", mock.Anything, mock.MatchedBy(func(r *models.AuditRecord) bool {
		return r.Accion == "Agregó depósito" && r.Usuario == "admin@lacautiva.com"
	})).Return(nil).Once()

	r := NewRecorder(store, nil, time.Second)
	err := r.Record(context.Background(), CreateEntry("admin@lacautiva.com", sampleTx(models.TypeDeposit)))
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRecorder_RecordFailureAlerts(t *testing.T) {
	boom := errors.New("permission denied")
	store := new(mockStore)
	store.On("Append", mock.Anything, mock.Anything).Return(boom)

	alerter := new(mockAlerter)
	alerter.On("AuditFailed", mock.Anything, mock.MatchedBy(func(e Entry) bool {
		return e.Accion == "Eliminó gasto"
	}), boom).Return(errors.New("smtp down")).Once()

	r := NewRecorder(store, alerter, time.Second)
	err := r.Record(context.Background(), DeleteEntry("u", sampleTx(models.TypeExpense)))

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Eliminó gasto", werr.Entry.Accion)
	alerter.AssertExpectations(t)
}

func TestRecorder_GoReceipt(t *testing.T) {
	release := make(chan struct{})
	store := new(mockStore)
	store.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "own timeout")
			<-release
		}).
		Return(nil)

	r := NewRecorder(store, nil, time.Second)
	receipt := r.Go(CreateEntry("u", sampleTx(models.TypeDeposit)))

	select {
	case <-receipt.Done():
		t.Fatal("receipt done before the write finished")
	default:
	}
	assert.NoError(t, receipt.Err())

	close(release)
	assert.NoError(t, receipt.Wait())
	r.Flush()
	store.AssertNumberOfCalls(t, "Append", 1)
}

func TestRecorder_GoFailureIsIndependent(t *testing.T) {
	boom := errors.New("quota exceeded")
	store := new(mockStore)
	store.On("Append", mock.Anything, mock.Anything).Return(boom)

	r := NewRecorder(store, nil, 0)
	receipt := r.Go(EditEntry("u", sampleTx(models.TypeDeposit), sampleTx(models.TypeDeposit)))

	err := receipt.Wait()
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, receipt.Err(), boom)
}

func TestRecorder_AlertSurvivesStoreTimeout(t *testing.T) {
	store := new(mockStore)
	store.On("Append", mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

	alerter := new(mockAlerter)
	alerter.On("AuditFailed", mock.Anything, mock.Anything, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			assert.NoError(t, ctx.Err(), "alert gets a live context")
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRecorder(store, alerter, time.Second)
	err := r.Record(ctx, CreateEntry("u", sampleTx(models.TypeDeposit)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	alerter.AssertExpectations(t)
}
