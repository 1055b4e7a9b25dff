package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDraft(status TransactionStatus) *TransactionDraft {
	return &TransactionDraft{
		InvestorID:      5,
		ReceiverID:      9,
		ProjectID:       1,
		RewardID:        2,
		ServiceProvider: ServiceProviderPesaPal,
		ServiceAlias:    ServiceAliasPesaPal,
		TxnID:           "PP1234567890ABCD",
		TxnAmount:       decimal.RequireFromString("50.00"),
		TxnCurrency:     "USD",
		TxnStatus:       status,
		TxnDate:         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNormalizeStatus(t *testing.T) {
	testCases := []struct {
		input    string
		expected TransactionStatus
	}{
		{"COMPLETED", StatusCompleted},
		{"Pending", StatusPending},
		{"FAILED", StatusFailed},
		{"INVALID", StatusFailed},
		{"invalid", StatusFailed},
		{"InVaLiD", StatusFailed},
		{" completed ", StatusCompleted},
		{"UNKNOWN", TransactionStatus("unknown")},
		{"", TransactionStatus("")},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeStatus(tc.input))
		})
	}
}

func TestNewTransactionFromDraft(t *testing.T) {
	draft := newTestDraft(StatusPending)
	draft.ExtraData = map[string]any{"tracking_id": "TRK1"}

	txn := NewTransactionFromDraft(draft)

	assert.True(t, txn.IsNew())
	assert.False(t, txn.IsCompleted())
	assert.Equal(t, "PP1234567890ABCD", txn.TxnID)
	assert.Equal(t, uint64(9), txn.ReceiverID)
	assert.Equal(t, "50.00", FormatAmount(txn.TxnAmount))
	assert.Equal(t, "TRK1", txn.ExtraData["tracking_id"])
}

func TestTransactionBind(t *testing.T) {
	t.Run("Overwrites fields and keeps identity", func(t *testing.T) {
		created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		txn := &Transaction{ID: 42, TxnID: "PP1234567890ABCD", TxnStatus: StatusPending, CreatedAt: created}

		txn.Bind(newTestDraft(StatusCompleted))

		assert.Equal(t, uint64(42), txn.ID)
		assert.Equal(t, created, txn.CreatedAt)
		assert.Equal(t, StatusCompleted, txn.TxnStatus)
		assert.True(t, txn.IsCompleted())
	})

	t.Run("Merges extra data", func(t *testing.T) {
		txn := &Transaction{ExtraData: map[string]any{"first": "a", "shared": "old"}}
		draft := newTestDraft(StatusPending)
		draft.ExtraData = map[string]any{"shared": "new", "second": "b"}

		txn.Bind(draft)

		require.Len(t, txn.ExtraData, 3)
		assert.Equal(t, "a", txn.ExtraData["first"])
		assert.Equal(t, "new", txn.ExtraData["shared"])
		assert.Equal(t, "b", txn.ExtraData["second"])
	})

	t.Run("Nil extra data leaves existing data", func(t *testing.T) {
		txn := &Transaction{ExtraData: map[string]any{"first": "a"}}
		txn.Bind(newTestDraft(StatusPending))
		assert.Equal(t, map[string]any{"first": "a"}, txn.ExtraData)
	})
}

func TestTransactionClone(t *testing.T) {
	txn := &Transaction{TxnID: "PP1", ExtraData: map[string]any{"k": "v"}}
	clone := txn.Clone()
	clone.ExtraData["k"] = "changed"
	clone.TxnID = "PP2"

	assert.Equal(t, "v", txn.ExtraData["k"])
	assert.Equal(t, "PP1", txn.TxnID)
}

func TestDraftFromTransaction(t *testing.T) {
	txn := NewTransactionFromDraft(newTestDraft(StatusPending))
	draft := DraftFromTransaction(txn)

	assert.Equal(t, txn.TxnID, draft.TxnID)
	assert.Equal(t, txn.ProjectID, draft.ProjectID)
	assert.Equal(t, txn.TxnCurrency, draft.TxnCurrency)
	assert.True(t, txn.TxnAmount.Equal(draft.TxnAmount))
}

func TestPaymentSession(t *testing.T) {
	session := &PaymentSession{OrderID: "PP1234567890ABCD", RewardID: 3}

	assert.Equal(t, "", session.GetData(ProviderDataAmount))
	session.SetData(ProviderDataAmount, "50.00")
	assert.Equal(t, "50.00", session.GetData(ProviderDataAmount))

	assert.True(t, session.MatchesOrder("PP1234567890ABCD"))
	assert.False(t, session.MatchesOrder("PPOTHER"))
	assert.False(t, (&PaymentSession{}).MatchesOrder(""))

	assert.True(t, session.AcceptsTrackingID("TRK1"))
	session.UniqueKey = "TRK1"
	assert.True(t, session.AcceptsTrackingID("TRK1"))
	assert.False(t, session.AcceptsTrackingID("TRK2"))

	assert.Equal(t, uint64(3), session.EffectiveRewardID())
	session.Anonymous = true
	assert.Equal(t, uint64(0), session.EffectiveRewardID())
}

func TestProjectAndReward(t *testing.T) {
	assert.True(t, (&Project{ID: 1, Published: true}).IsValid())
	assert.False(t, (&Project{ID: 1}).IsValid())
	var missing *Project
	assert.False(t, missing.IsValid())

	reward := &Reward{ID: 2, ProjectID: 1, Published: true}
	assert.True(t, reward.BelongsTo(1))
	assert.False(t, reward.BelongsTo(3))
	assert.False(t, reward.IsLimited())
	reward.Number = 10
	assert.True(t, reward.IsLimited())
}
