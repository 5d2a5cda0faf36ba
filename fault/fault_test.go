package fault

import (
	"testing"

	"github.com/pkg/errors"
)

func TestKindOf(t *testing.T) {
	err := New(InvalidParameters, "missing field")
	if KindOf(err) != InvalidParameters {
		t.Errorf("KindOf = %s, want %s", KindOf(err), InvalidParameters)
	}

	wrapped := errors.WithMessage(err, "while validating")
	if KindOf(wrapped) != InvalidParameters {
		t.Errorf("kind lost through wrapping: %s", KindOf(wrapped))
	}

	if KindOf(errors.New("plain")) != TransferFailed {
		t.Errorf("unclassified errors should default to TRANSFER_FAILED")
	}
}

func TestWrapPreservesFirstKind(t *testing.T) {
	inner := New(NoPresignMethod, "no credentials")
	outer := Wrap(inner, TransferFailed, "during resolve")
	if KindOf(outer) != NoPresignMethod {
		t.Errorf("Wrap must preserve the first kind, got %s", KindOf(outer))
	}
}

func TestRewrapOverridesKind(t *testing.T) {
	inner := New(TransferFailed, "connection reset")
	outer := Rewrap(inner, StagingFailed, "staging master audio")
	if KindOf(outer) != StagingFailed {
		t.Errorf("Rewrap must override the kind, got %s", KindOf(outer))
	}
	if !Is(outer, StagingFailed) {
		t.Error("Is should report the outermost kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, TransferFailed, "x") != nil {
		t.Error("Wrap(nil) must be nil")
	}
	if Rewrap(nil, TransferFailed, "x") != nil {
		t.Error("Rewrap(nil) must be nil")
	}
}
