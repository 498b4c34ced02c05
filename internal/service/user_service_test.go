package service

import (
	"errors"
	"strings"
	"testing"

	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"
)

func seedProfileStudent(store *fakeAccountStore) *model.StudentUser {
	return store.seed(&model.StudentUser{
		Name:                  "Zhao Min",
		Email:                 "zhao.min@example.edu",
		AccountStatus:         model.StatusActive,
		WritingSpeed:          400,
		ReadingSpeed:          30,
		ProblemSolvingSpeed:   5,
		ProcrastinationFactor: 1.2,
		PeakStartHour:         19,
		PeakEndHour:           23,
	})
}

func TestUpdateProfilePartial(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	speed := 550.0
	updated, err := svc.UpdateProfile(seeded.ID, &UpdateProfileRequest{WritingSpeed: &speed})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v, want nil", err)
	}
	if updated.WritingSpeed != 550 {
		t.Errorf("WritingSpeed = %v, want 550", updated.WritingSpeed)
	}
	// 未提交的字段保持原值
	if updated.ReadingSpeed != 30 || updated.ProcrastinationFactor != 1.2 {
		t.Errorf("untouched fields changed: reading=%v factor=%v", updated.ReadingSpeed, updated.ProcrastinationFactor)
	}

	persisted, _ := store.FindByID(seeded.ID)
	if persisted.WritingSpeed != 550 {
		t.Errorf("persisted WritingSpeed = %v, want 550", persisted.WritingSpeed)
	}
}

func TestUpdateProfileInvalidSpeed(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	zero := 0.0
	_, err := svc.UpdateProfile(seeded.ID, &UpdateProfileRequest{ReadingSpeed: &zero})
	if !errors.Is(err, util.ErrInvalidProfile) {
		t.Fatalf("UpdateProfile() error = %v, want ErrInvalidProfile", err)
	}

	persisted, _ := store.FindByID(seeded.ID)
	if persisted.ReadingSpeed != 30 {
		t.Errorf("invalid update was persisted: ReadingSpeed = %v", persisted.ReadingSpeed)
	}
}

func TestUpdateProfileInvalidProcrastinationFactor(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	factor := 0.8
	_, err := svc.UpdateProfile(seeded.ID, &UpdateProfileRequest{ProcrastinationFactor: &factor})
	if !errors.Is(err, util.ErrInvalidProfile) {
		t.Fatalf("UpdateProfile() error = %v, want ErrInvalidProfile", err)
	}
}

func TestSetAccountStatusManual(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	updated, err := svc.SetAccountStatus(seeded.ID, model.StatusDormant)
	if err != nil {
		t.Fatalf("SetAccountStatus() error = %v, want nil", err)
	}
	if updated.AccountStatus != model.StatusDormant {
		t.Errorf("AccountStatus = %q, want %q", updated.AccountStatus, model.StatusDormant)
	}
	if updated.StatusConfidence != 100 {
		t.Errorf("StatusConfidence = %d, want 100", updated.StatusConfidence)
	}

	persisted, _ := store.FindByID(seeded.ID)
	if !strings.Contains(persisted.GraduationSignals, "manual_override") {
		t.Errorf("signals = %q, want a manual_override marker", persisted.GraduationSignals)
	}
}

func TestSetAccountStatusRejectsDetectorOnly(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	// inactive 和 graduated_suspected 只能由检测器给出
	for _, status := range []model.AccountStatus{model.StatusInactive, model.StatusGraduatedSuspected} {
		if _, err := svc.SetAccountStatus(seeded.ID, status); !errors.Is(err, util.ErrInvalidStatus) {
			t.Errorf("SetAccountStatus(%q) error = %v, want ErrInvalidStatus", status, err)
		}
	}

	persisted, _ := store.FindByID(seeded.ID)
	if persisted.AccountStatus != model.StatusActive {
		t.Errorf("rejected update was persisted: status = %q", persisted.AccountStatus)
	}
}

func TestSetAccountStatusUnknownStudent(t *testing.T) {
	svc := NewUserService(newFakeAccountStore())

	_, err := svc.SetAccountStatus(404, model.StatusDormant)
	if !errors.Is(err, util.ErrStudentNotFound) {
		t.Fatalf("SetAccountStatus() error = %v, want ErrStudentNotFound", err)
	}
}

func TestUpdateAvatar(t *testing.T) {
	store := newFakeAccountStore()
	seeded := seedProfileStudent(store)
	svc := NewUserService(store)

	if err := svc.UpdateAvatar(seeded.ID, "/uploads/avatars/abc.png"); err != nil {
		t.Fatalf("UpdateAvatar() error = %v, want nil", err)
	}
	persisted, _ := store.FindByID(seeded.ID)
	if persisted.Avatar != "/uploads/avatars/abc.png" {
		t.Errorf("Avatar = %q, want the uploaded path", persisted.Avatar)
	}
}
