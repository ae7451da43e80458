package badge

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/learntocloud/ltc-backend/core"
	"github.com/learntocloud/ltc-backend/core/curriculum"
	"github.com/learntocloud/ltc-backend/core/progress"
	"github.com/learntocloud/ltc-backend/core/user"
)

var (
	// errors
	ErrBadgeNotFound       = errors.New("badge not found")
	ErrBadgeExists         = errors.New("badge already awarded")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateExists   = errors.New("certificate already issued")
)

type (
	Repository interface {
		// CreateBadge fails with ErrBadgeExists when the (UserID, Phase)
		// badge was already awarded.
		CreateBadge(b Badge) (Badge, error)
		GetBadge(userID string, phase int) (Badge, error)
		QueryUserBadges(userID string) ([]Badge, error)
		// CreateCertificate fails with ErrCertificateExists when the user
		// already holds one.
		CreateCertificate(c Certificate) (Certificate, error)
		GetUserCertificate(userID string) (Certificate, error)
		GetCertificateByCode(code string) (Certificate, error)
	}

	Service interface {
		// Evaluate (re-)checks every phase for the user and awards whatever
		// is newly earned. Called after any write that can change a phase's
		// status; safe to call repeatedly.
		Evaluate(usr user.User) ([]Badge, *Certificate, error)
		QueryBadges(userID string) ([]Badge, error)
		GetCertificate(userID string) (Certificate, error)
		// VerifyCertificate resolves a public verification code.
		VerifyCertificate(code string) (Certificate, error)
	}

	service struct {
		catalog     *curriculum.Catalog
		repo        Repository
		progressSvc progress.Service
		mailSvc     core.EmailService
		conf        *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	catalog *curriculum.Catalog,
	repo Repository,
	progressSvc progress.Service,
	mailSvc core.EmailService,
	conf *core.Config,
) Service {
	return &service{
		catalog:     catalog,
		repo:        repo,
		progressSvc: progressSvc,
		mailSvc:     mailSvc,
		conf:        conf,
	}
}

func (svc *service) Evaluate(usr user.User) ([]Badge, *Certificate, error) {
	var awarded []Badge
	allCompleted := true

	for _, ph := range svc.catalog.Phases() {
		completed, err := svc.progressSvc.PhaseCompleted(usr.ID, ph.Number)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "checking phase %d completion", ph.Number)
		}
		if !completed {
			allCompleted = false
			continue
		}

		b, err := svc.awardBadge(usr, ph)
		if err != nil {
			return nil, nil, err
		}
		if b != nil {
			awarded = append(awarded, *b)
		}
	}

	if !allCompleted {
		return awarded, nil, nil
	}
	cert, err := svc.issueCertificate(usr)
	if err != nil {
		return nil, nil, err
	}
	return awarded, cert, nil
}

// awardBadge awards the phase badge unless already awarded; returns nil when
// nothing new was awarded.
func (svc *service) awardBadge(usr user.User, ph curriculum.Phase) (*Badge, error) {
	if _, err := svc.repo.GetBadge(usr.ID, ph.Number); err == nil {
		return nil, nil
	} else if errors.Cause(err) != ErrBadgeNotFound {
		return nil, errors.Wrap(err, "getting badge")
	}

	b, err := svc.repo.CreateBadge(Badge{
		UserID:    usr.ID,
		Phase:     ph.Number,
		PhaseSlug: ph.Slug,
		PhaseName: ph.Name,
		AwardedAt: time.Now().UTC(),
	})
	if err != nil {
		// lost a race against a concurrent evaluation; the badge exists
		if errors.Cause(err) == ErrBadgeExists {
			return nil, nil
		}
		return nil, errors.Wrap(err, "creating badge")
	}

	svc.sendBadgeAwardedMail(usr, b)
	return &b, nil
}

func (svc *service) issueCertificate(usr user.User) (*Certificate, error) {
	if _, err := svc.repo.GetUserCertificate(usr.ID); err == nil {
		return nil, nil
	} else if errors.Cause(err) != ErrCertificateNotFound {
		return nil, errors.Wrap(err, "getting certificate")
	}

	cert, err := svc.repo.CreateCertificate(Certificate{
		UserID:            usr.ID,
		Code:              uuid.New().String(),
		HolderName:        usr.Name,
		CurriculumVersion: svc.conf.CurriculumVersion,
		IssuedAt:          time.Now().UTC(),
	})
	if err != nil {
		if errors.Cause(err) == ErrCertificateExists {
			return nil, nil
		}
		return nil, errors.Wrap(err, "creating certificate")
	}

	svc.sendCertificateIssuedMail(usr, cert)
	return &cert, nil
}

func (svc *service) QueryBadges(userID string) ([]Badge, error) {
	return svc.repo.QueryUserBadges(userID)
}

func (svc *service) GetCertificate(userID string) (Certificate, error) {
	return svc.repo.GetUserCertificate(userID)
}

func (svc *service) VerifyCertificate(code string) (Certificate, error) {
	return svc.repo.GetCertificateByCode(core.CleanString(code, true /* lower */))
}

func (svc *service) sendBadgeAwardedMail(usr user.User, b Badge) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "You earned a badge!",
		TemplateName: "badge-awarded",
		TemplateData: struct {
			Name      string
			PhaseName string
		}{
			Name:      usr.Name,
			PhaseName: b.PhaseName,
		},
	})
}

func (svc *service) sendCertificateIssuedMail(usr user.User, cert Certificate) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your Learn to Cloud certificate",
		TemplateName: "certificate-issued",
		TemplateData: struct {
			Name string
			Code string
		}{
			Name: usr.Name,
			Code: cert.Code,
		},
	})
}
