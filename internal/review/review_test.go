package review

import (
	"testing"
	"time"

	"tallytalk/internal/models"
	"tallytalk/internal/testutil"
	"tallytalk/internal/voice"
)

func parseResult(candidates ...voice.CandidateTransaction) *voice.ParseResult {
	return &voice.ParseResult{
		Transcript: "test transcript",
		Language:   models.LangEnglish,
		Candidates: candidates,
	}
}

func expenseCandidate(cents int64, desc, suggested string) voice.CandidateTransaction {
	return voice.CandidateTransaction{
		AmountCents:       cents,
		Description:       desc,
		SuggestedCategory: suggested,
		Type:              models.TransactionTypeExpense,
	}
}

func strPtr(s string) *string { return &s }

func TestStoreCreateAndGet(t *testing.T) {
	st := NewStore(0)

	s := st.Create("user-1", parseResult(expenseCandidate(500, "Coffee", "Food & Dining")))
	if s.Status != StatusReviewing {
		t.Errorf("expected reviewing, got %s", s.Status)
	}
	if len(s.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(s.Items))
	}

	got, err := st.Get(s.ID, "user-1")
	testutil.AssertNoError(t, err)
	if got.Transcript != "test transcript" {
		t.Errorf("unexpected transcript: %s", got.Transcript)
	}
}

func TestStoreOwnerScoping(t *testing.T) {
	st := NewStore(0)
	s := st.Create("user-1", parseResult())

	_, err := st.Get(s.ID, "user-2")
	testutil.AssertAppError(t, err, "REVIEW_NOT_FOUND")
}

func TestStoreTTLExpiry(t *testing.T) {
	st := NewStore(time.Millisecond)
	s := st.Create("user-1", parseResult())

	time.Sleep(5 * time.Millisecond)
	_, err := st.Get(s.ID, "user-1")
	testutil.AssertAppError(t, err, "REVIEW_NOT_FOUND")
}

func TestUpdateItem(t *testing.T) {
	t.Run("amount_and_description", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(500, "Coffee", "Food & Dining")))

		amount := int64(750)
		desc := "Large coffee"
		got, err := st.UpdateItem(s.ID, "u", 0, ItemUpdate{AmountCents: &amount, Description: &desc})
		testutil.AssertNoError(t, err)

		if got.Items[0].AmountCents != 750 || got.Items[0].Description != "Large coffee" {
			t.Errorf("edit not applied: %+v", got.Items[0])
		}
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(500, "Coffee", "")))

		zero := int64(0)
		_, err := st.UpdateItem(s.ID, "u", 0, ItemUpdate{AmountCents: &zero})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("index_out_of_range", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(500, "Coffee", "")))

		_, err := st.UpdateItem(s.ID, "u", 5, ItemUpdate{})
		testutil.AssertAppError(t, err, "REVIEW_ITEM_NOT_FOUND")
	})

	t.Run("category_pick_marks_user_edited", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(500, "Coffee", "Food & Dining")))

		got, err := st.UpdateItem(s.ID, "u", 0, ItemUpdate{CategoryID: strPtr("cat-9")})
		testutil.AssertNoError(t, err)
		if got.Items[0].CategoryID == nil || *got.Items[0].CategoryID != "cat-9" {
			t.Fatal("category pick not applied")
		}

		// A later reconciliation pass must not clobber the manual pick.
		categories := []models.Category{{
			Base: models.Base{ID: "cat-1"},
			Name: "Food & Dining",
			Type: models.CategoryTypeExpense,
		}}
		got, err = st.Reconcile(s.ID, "u", categories)
		testutil.AssertNoError(t, err)
		if *got.Items[0].CategoryID != "cat-9" {
			t.Errorf("reconcile clobbered a user pick: %v", *got.Items[0].CategoryID)
		}
	})

	t.Run("type_change_resets_category_guess", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(500, "Paycheck", "Other")))

		categories := []models.Category{
			{Base: models.Base{ID: "exp-other"}, Name: "Other", Type: models.CategoryTypeExpense},
			{Base: models.Base{ID: "inc-salary"}, Name: "Salary", Type: models.CategoryTypeIncome},
		}
		got, err := st.Reconcile(s.ID, "u", categories)
		testutil.AssertNoError(t, err)
		if got.Items[0].CategoryID == nil || *got.Items[0].CategoryID != "exp-other" {
			t.Fatal("expected initial expense guess")
		}

		income := models.TransactionTypeIncome
		got, err = st.UpdateItem(s.ID, "u", 0, ItemUpdate{Type: &income})
		testutil.AssertNoError(t, err)
		if got.Items[0].CategoryID != nil {
			t.Error("type change must clear the stale guess")
		}

		// The next reconcile works against the income subset.
		salary := "Salary"
		got, err = st.UpdateItem(s.ID, "u", 0, ItemUpdate{Description: &salary})
		testutil.AssertNoError(t, err)
		got, err = st.Reconcile(s.ID, "u", categories)
		testutil.AssertNoError(t, err)
		if got.Items[0].CategoryID != nil {
			// SuggestedCategory is still "Other"; no income category matches it.
			t.Errorf("expected no income match for suggestion Other, got %v", *got.Items[0].CategoryID)
		}
	})
}

func TestRemoveItem(t *testing.T) {
	st := NewStore(0)
	s := st.Create("u", parseResult(
		expenseCandidate(100, "First", ""),
		expenseCandidate(200, "Second", ""),
	))

	got, err := st.RemoveItem(s.ID, "u", 0)
	testutil.AssertNoError(t, err)
	if len(got.Items) != 1 || got.Items[0].Description != "Second" {
		t.Fatalf("unexpected items after removal: %+v", got.Items)
	}
}

func TestSaveLifecycle(t *testing.T) {
	t.Run("begin_finish", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(100, "Coffee", "")))

		got, err := st.BeginSave(s.ID, "u")
		testutil.AssertNoError(t, err)
		if got.Status != StatusSaving {
			t.Errorf("expected saving, got %s", got.Status)
		}

		testutil.AssertNoError(t, st.FinishSave(s.ID, "u"))

		_, err = st.Get(s.ID, "u")
		testutil.AssertAppError(t, err, "REVIEW_NOT_FOUND")
	})

	t.Run("abort_returns_to_reviewing_with_edits", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(100, "Coffee", "")))

		desc := "Edited description"
		_, err := st.UpdateItem(s.ID, "u", 0, ItemUpdate{Description: &desc})
		testutil.AssertNoError(t, err)

		_, err = st.BeginSave(s.ID, "u")
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, st.AbortSave(s.ID, "u"))

		got, err := st.Get(s.ID, "u")
		testutil.AssertNoError(t, err)
		if got.Status != StatusReviewing {
			t.Errorf("expected reviewing after abort, got %s", got.Status)
		}
		if got.Items[0].Description != "Edited description" {
			t.Error("abort must preserve the user's edits")
		}
	})

	t.Run("empty_session_cannot_save", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult())

		_, err := st.BeginSave(s.ID, "u")
		testutil.AssertAppError(t, err, "EMPTY_BATCH")
	})

	t.Run("no_edits_while_saving", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(100, "Coffee", "")))

		_, err := st.BeginSave(s.ID, "u")
		testutil.AssertNoError(t, err)

		desc := "sneaky edit"
		_, err = st.UpdateItem(s.ID, "u", 0, ItemUpdate{Description: &desc})
		testutil.AssertAppError(t, err, "REVIEW_CONFLICT")
	})

	t.Run("double_begin_conflicts", func(t *testing.T) {
		st := NewStore(0)
		s := st.Create("u", parseResult(expenseCandidate(100, "Coffee", "")))

		_, err := st.BeginSave(s.ID, "u")
		testutil.AssertNoError(t, err)
		_, err = st.BeginSave(s.ID, "u")
		testutil.AssertAppError(t, err, "REVIEW_CONFLICT")
	})
}

func TestCancel(t *testing.T) {
	st := NewStore(0)
	s := st.Create("u", parseResult(expenseCandidate(100, "Coffee", "")))

	st.Cancel(s.ID, "u")

	_, err := st.Get(s.ID, "u")
	testutil.AssertAppError(t, err, "REVIEW_NOT_FOUND")

	// Cancelling twice is harmless.
	st.Cancel(s.ID, "u")
}

func TestRecorderSignal(t *testing.T) {
	sig := NewRecorderSignal()

	if sig.Consume("u") {
		t.Error("unraised signal must read false")
	}

	sig.Raise("u")
	sig.Raise("u") // raising twice is still one signal

	if !sig.Consume("u") {
		t.Error("raised signal must read true")
	}
	if sig.Consume("u") {
		t.Error("consuming must clear the signal")
	}

	// Signals are per user.
	sig.Raise("a")
	if sig.Consume("b") {
		t.Error("one user's signal must not leak to another")
	}
	if !sig.Consume("a") {
		t.Error("signal for user a should still be pending")
	}
}
