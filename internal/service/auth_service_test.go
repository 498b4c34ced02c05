package service

import (
	"errors"
	"testing"
	"time"

	"studytrack_backend/internal/config"
	"studytrack_backend/internal/model"
	"studytrack_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// fakeAccountStore 内存版学生账号存储，认证与资料服务测试共用
type fakeAccountStore struct {
	students map[uint]*model.StudentUser
	nextID   uint
	emailErr error // 非空时 FindByEmail 直接返回该错误
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{students: make(map[uint]*model.StudentUser)}
}

func (f *fakeAccountStore) Create(student *model.StudentUser) error {
	f.nextID++
	student.ID = f.nextID
	copied := *student
	f.students[student.ID] = &copied
	return nil
}

func (f *fakeAccountStore) FindByID(id uint) (*model.StudentUser, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	copied := *student
	return &copied, nil
}

func (f *fakeAccountStore) FindByEmail(email string) (*model.StudentUser, error) {
	if f.emailErr != nil {
		return nil, f.emailErr
	}
	for _, student := range f.students {
		if student.Email == email {
			copied := *student
			return &copied, nil
		}
	}
	return nil, util.ErrStudentNotFound
}

func (f *fakeAccountStore) Update(student *model.StudentUser) error {
	if _, ok := f.students[student.ID]; !ok {
		return util.ErrStudentNotFound
	}
	copied := *student
	f.students[student.ID] = &copied
	return nil
}

func (f *fakeAccountStore) UpdateStatus(studentID uint, status model.AccountStatus, confidence int, signals string, lastActive time.Time) error {
	student, ok := f.students[studentID]
	if !ok {
		return util.ErrStudentNotFound
	}
	student.AccountStatus = status
	student.StatusConfidence = confidence
	student.GraduationSignals = signals
	student.LastActive = lastActive
	return nil
}

func (f *fakeAccountStore) seed(student *model.StudentUser) *model.StudentUser {
	if student.ID == 0 {
		f.nextID++
		student.ID = f.nextID
	}
	f.students[student.ID] = student
	return student
}

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "unit-test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return cfg
}

func TestRegisterNewEmail(t *testing.T) {
	store := newFakeAccountStore()
	svc := NewAuthService(store, testAuthConfig())

	// 邮箱未注册时底层返回 not-found，这不能当作失败向上抛
	student, err := svc.Register(&RegisterRequest{
		Name:         "Wang Lei",
		Email:        "wang.lei@example.edu",
		Password:     "s3cret-pass",
		UniversityID: 7,
	})
	if err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	if student.ID == 0 {
		t.Fatalf("Register() did not assign an ID")
	}
	if student.Role != model.Student {
		t.Errorf("Role = %q, want %q", student.Role, model.Student)
	}
	if student.Password == "s3cret-pass" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.Password), []byte("s3cret-pass")); err != nil {
		t.Errorf("stored password is not a valid bcrypt hash of the input: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeAccountStore()
	store.seed(&model.StudentUser{Name: "Existing", Email: "taken@example.edu"})
	svc := NewAuthService(store, testAuthConfig())

	_, err := svc.Register(&RegisterRequest{
		Name:     "Newcomer",
		Email:    "taken@example.edu",
		Password: "whatever1",
	})
	if !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("Register() error = %v, want ErrEmailRegistered", err)
	}
	if len(store.students) != 1 {
		t.Errorf("duplicate registration created a record, store size = %d", len(store.students))
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	store := newFakeAccountStore()
	store.emailErr = errors.New("connection refused")
	svc := NewAuthService(store, testAuthConfig())

	_, err := svc.Register(&RegisterRequest{
		Name:     "Anyone",
		Email:    "anyone@example.edu",
		Password: "whatever1",
	})
	if err == nil || errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("Register() error = %v, want the underlying store error", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	store := newFakeAccountStore()
	seeded := store.seed(&model.StudentUser{
		Name:     "Li Na",
		Email:    "li.na@example.edu",
		Password: string(hashed),
		Role:     model.Student,
	})
	cfg := testAuthConfig()
	svc := NewAuthService(store, cfg)

	token, student, err := svc.Login(&LoginRequest{Email: "li.na@example.edu", Password: "right-pass"})
	if err != nil {
		t.Fatalf("Login() error = %v, want nil", err)
	}
	if student.ID != seeded.ID {
		t.Errorf("Login() student ID = %d, want %d", student.ID, seeded.ID)
	}

	claims, err := util.ParseJWT(token, cfg.JWT.Secret)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != seeded.ID || claims.Email != seeded.Email {
		t.Errorf("claims = {%d %q}, want {%d %q}", claims.UserID, claims.Email, seeded.ID, seeded.Email)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	store := newFakeAccountStore()
	store.seed(&model.StudentUser{Email: "li.na@example.edu", Password: string(hashed)})
	svc := NewAuthService(store, testAuthConfig())

	_, _, err := svc.Login(&LoginRequest{Email: "li.na@example.edu", Password: "wrong-pass"})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("Login() error = %v, want ErrPermissionDenied", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeAccountStore(), testAuthConfig())

	_, _, err := svc.Login(&LoginRequest{Email: "nobody@example.edu", Password: "whatever1"})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("Login() error = %v, want ErrPermissionDenied", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	store := newFakeAccountStore()
	store.seed(&model.StudentUser{Email: "gone@example.edu", Password: string(hashed), Disabled: true})
	svc := NewAuthService(store, testAuthConfig())

	_, _, err := svc.Login(&LoginRequest{Email: "gone@example.edu", Password: "right-pass"})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("Login() error = %v, want ErrPermissionDenied", err)
	}
}
