package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"carteirinha/internal/photo"
	"carteirinha/internal/student/models"
	"carteirinha/internal/student/store"
	pkgerrors "carteirinha/pkg/errors"
)

type ServiceSuite struct {
	suite.Suite
	store  *store.InMemoryStudentStore
	photos *photo.InMemoryStore
	svc    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.photos = photo.NewInMemory("http://localhost:8080/photos")
	s.svc = New(s.store, s.photos, slog.New(slog.DiscardHandler), nil)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) register(cpf string) models.Student {
	created, err := s.svc.Register(context.Background(), RegisterInput{
		CPF:       cpf,
		Name:      "ANA SILVA",
		RG:        "MG1234567",
		BirthDate: "1999-01-01",
		Course:    "Direito",
		PhotoURL:  "http://localhost:8080/photos/seed.jpg",
	})
	s.Require().NoError(err)
	return created
}

// TestRegistrationScenario covers the full first-use flow: unknown CPF routes
// to registration, the submitted form yields a complete record with assigned
// codes and injected constants, and the record is retrievable afterwards.
func (s *ServiceSuite) TestRegistrationScenario() {
	ctx := context.Background()

	_, err := s.svc.Lookup(ctx, "123.456.789-00")
	s.Require().Error(err)
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound), "unknown cpf is a miss, not a failure")

	created := s.register("123.456.789-00")

	s.Regexp(`^\d{6}$`, created.Matricula)
	s.Regexp(`^[A-Z0-9]{8}$`, created.UsageCode)
	s.Equal("FGV", created.Institution)
	s.Equal("PÓS GRADUAÇÃO", created.Level)
	s.Equal("31/03/2026", created.Validity)

	found, err := s.svc.Lookup(ctx, "12345678900")
	s.Require().NoError(err)
	s.Equal(created, found)
}

func (s *ServiceSuite) TestRegisterValidation() {
	ctx := context.Background()
	base := RegisterInput{
		CPF:       "123.456.789-00",
		Name:      "ANA SILVA",
		RG:        "MG1234567",
		BirthDate: "1999-01-01",
		Course:    "Direito",
		PhotoURL:  "http://localhost:8080/photos/seed.jpg",
	}

	s.Run("rejects missing photo before any round trip", func() {
		in := base
		in.PhotoURL = ""
		_, err := s.svc.Register(ctx, in)
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("rejects malformed cpf", func() {
		in := base
		in.CPF = "123.456.789-0"
		_, err := s.svc.Register(ctx, in)
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("rejects course outside the catalog", func() {
		in := base
		in.Course = "Astrologia"
		_, err := s.svc.Register(ctx, in)
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("rejects bad birth date", func() {
		in := base
		in.BirthDate = "01/01/1999"
		_, err := s.svc.Register(ctx, in)
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("rejects duplicate cpf as conflict", func() {
		s.register("111.222.333-44")
		in := base
		in.CPF = "111.222.333-44"
		_, err := s.svc.Register(ctx, in)
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestUpdateProfile() {
	ctx := context.Background()
	created := s.register("123.456.789-00")

	s.Run("name-only patch leaves everything else untouched", func() {
		name := "ANA SOUZA"
		updated, err := s.svc.UpdateProfile(ctx, "123.456.789-00", models.StudentPatch{Name: &name})
		s.Require().NoError(err)
		s.Equal("ANA SOUZA", updated.Name)
		s.Equal(created.RG, updated.RG)
		s.Equal(created.Course, updated.Course)
		s.Equal(created.Matricula, updated.Matricula, "matricula never regenerated on update")
		s.Equal(created.UsageCode, updated.UsageCode, "usage code never regenerated on update")
		s.Equal(created.CPF, updated.CPF, "cpf immutable")
	})

	s.Run("empty patch is rejected", func() {
		_, err := s.svc.UpdateProfile(ctx, "123.456.789-00", models.StudentPatch{})
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("photo cannot be cleared", func() {
		empty := ""
		_, err := s.svc.UpdateProfile(ctx, "123.456.789-00", models.StudentPatch{PhotoURL: &empty})
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("patching a missing record is not found", func() {
		name := "NOBODY"
		_, err := s.svc.UpdateProfile(ctx, "999.999.999-99", models.StudentPatch{Name: &name})
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestValidateByUsageCode() {
	ctx := context.Background()
	created := s.register("123.456.789-00")

	s.Run("resolves the code to its record", func() {
		found, err := s.svc.ValidateByUsageCode(ctx, created.UsageCode)
		s.Require().NoError(err)
		s.Equal(created.CPF, found.CPF)
	})

	s.Run("rejects malformed codes locally", func() {
		_, err := s.svc.ValidateByUsageCode(ctx, "short")
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))

		_, err = s.svc.ValidateByUsageCode(ctx, "abcd1234") // lowercase
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})

	s.Run("unknown code is not found", func() {
		_, err := s.svc.ValidateByUsageCode(ctx, "ZZZZ0000")
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestDelete() {
	ctx := context.Background()
	s.register("123.456.789-00")

	s.Require().NoError(s.svc.Delete(ctx, "123.456.789-00"))

	_, err := s.svc.Lookup(ctx, "123.456.789-00")
	s.Require().Error(err)
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))

	err = s.svc.Delete(ctx, "123.456.789-00")
	s.Require().Error(err)
	s.True(pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func (s *ServiceSuite) TestUploadPhoto() {
	ctx := context.Background()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}
	s.Require().NoError(png.Encode(&buf, img))

	s.Run("stores the blob under a cpf-derived name", func() {
		url, err := s.svc.UploadPhoto(ctx, "123.456.789-00", buf.Bytes(), "")
		s.Require().NoError(err)
		s.True(strings.Contains(url, "/photos/12345678900_"), "url %q not derived from cpf digits", url)
		s.Equal(1, s.photos.Len())
	})

	s.Run("replacing removes the previous blob", func() {
		first, err := s.svc.UploadPhoto(ctx, "987.654.321-00", buf.Bytes(), "")
		s.Require().NoError(err)
		before := s.photos.Len()

		_, err = s.svc.UploadPhoto(ctx, "987.654.321-00", buf.Bytes(), first)
		s.Require().NoError(err)
		s.Equal(before, s.photos.Len(), "old blob removed, new one added")
	})

	s.Run("rejects empty payload", func() {
		_, err := s.svc.UploadPhoto(ctx, "123.456.789-00", nil, "")
		s.Require().Error(err)
		s.True(pkgerrors.Is(err, pkgerrors.CodeInvalidInput))
	})
}
