package shared

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuditRecordValidation(t *testing.T) {
	var nilLogger *AuditLogger
	err := nilLogger.Record(context.Background(), AuditLog{Action: "X", Entity: "y", EntityID: "1"})
	require.ErrorContains(t, err, "not initialised")

	l := NewAuditLogger(nil)
	err = l.Record(context.Background(), AuditLog{Entity: "y", EntityID: "1"})
	require.ErrorContains(t, err, "requires action")
	err = l.Record(context.Background(), AuditLog{Action: "X", EntityID: "1"})
	require.ErrorContains(t, err, "requires action")
	err = l.Record(context.Background(), AuditLog{Action: "X", Entity: "y"})
	require.ErrorContains(t, err, "requires action")
}

func TestApprovalRecordValidation(t *testing.T) {
	var nilRecorder *ApprovalRecorder
	err := nilRecorder.Record(context.Background(), ApprovalLog{})
	require.ErrorContains(t, err, "not initialised")

	r := NewApprovalRecorder(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ref := uuid.New()

	err = r.Record(context.Background(), ApprovalLog{RefID: ref, ActorID: 1, Action: ApprovalApprove})
	require.ErrorContains(t, err, "module required")
	err = r.Record(context.Background(), ApprovalLog{Module: "PO", RefID: ref, Action: ApprovalApprove})
	require.ErrorContains(t, err, "actor required")
	err = r.Record(context.Background(), ApprovalLog{Module: "PO", ActorID: 1, Action: ApprovalApprove})
	require.ErrorContains(t, err, "ref id required")
	err = r.Record(context.Background(), ApprovalLog{Module: "PO", RefID: ref, ActorID: 1})
	require.ErrorContains(t, err, "action required")
}
