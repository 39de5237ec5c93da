package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
)

// failingAssignment simulates an assignment outage.
type failingAssignment struct{ err error }

func (a *failingAssignment) Assign(context.Context, int, []string) error { return a.err }

func validRegistration() RegistrationInput {
	return RegistrationInput{
		TeamName:          "Team Apex",
		LeadEmail:         "Lead@Apex.Test",
		AccessCode:        "correcthorse",
		MentorName:        "Prof. Iyer",
		MentorDept:        "CSE",
		Country:           "IN",
		ParticipationMode: "online",
		Members: []MemberInput{
			{Name: "Asha", Email: "asha@apex.test", IsLead: true},
			{Name: "Ravi", Email: "ravi@apex.test"},
		},
		PaperTitle: "Adaptive Scheduling",
		Domains:    []string{"ML", " ML ", "Systems", ""},
	}
}

func newRegistrationService(t *testing.T, teamRepo *fakeTeamRepo, memberRepo *fakeMemberRepo, paperRepo *fakePaperRepo, assignment AssignmentService, uploader *fakeUploader) RegistrationService {
	t.Helper()
	return NewRegistrationService(newStubDB(t), teamRepo, memberRepo, paperRepo, assignment, uploader, testLogger())
}

func TestRegister(t *testing.T) {
	teamRepo := &fakeTeamRepo{}
	memberRepo := &fakeMemberRepo{}
	paperRepo := &fakePaperRepo{}
	uploader := &fakeUploader{}
	svc := newRegistrationService(t, teamRepo, memberRepo, paperRepo, &failingAssignment{}, uploader)

	team, err := svc.Register(context.Background(), validRegistration(), pdfUpload(), pdfUpload())
	require.NoError(t, err)

	assert.Equal(t, "lead@apex.test", team.LeadEmail)
	assert.Empty(t, team.AccessCodeHash)
	assert.Len(t, team.Members, 2)
	require.NotNil(t, team.Paper)
	assert.Equal(t, models.StatusSubmitted, team.Paper.Status)
	assert.Equal(t, []string{"ML", "Systems"}, []string(team.Paper.Domains))
	require.NotNil(t, team.Paper.PaperURL)
	require.NotNil(t, team.Paper.PlagiarismURL)
	assert.Len(t, uploader.uploaded, 2)
	require.Len(t, teamRepo.created, 1)
	assert.NotEmpty(t, teamRepo.created[0].AccessCodeHash)
}

func TestRegisterSurvivesAssignmentFailure(t *testing.T) {
	teamRepo := &fakeTeamRepo{}
	paperRepo := &fakePaperRepo{}
	svc := newRegistrationService(t, teamRepo, &fakeMemberRepo{}, paperRepo,
		&failingAssignment{err: errors.New("reviewer pool unavailable")}, &fakeUploader{})

	team, err := svc.Register(context.Background(), validRegistration(), pdfUpload(), pdfUpload())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, team.Paper.Status)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegistrationInput)
		wantErr error
	}{
		{"missing team name", func(in *RegistrationInput) { in.TeamName = "  " }, ErrTeamNameRequired},
		{"bad lead email", func(in *RegistrationInput) { in.LeadEmail = "not-an-email" }, ErrInvalidEmail},
		{"short access code", func(in *RegistrationInput) { in.AccessCode = "short" }, ErrAccessCodeTooShort},
		{"no members", func(in *RegistrationInput) { in.Members = nil }, ErrMembersRequired},
		{"no lead member", func(in *RegistrationInput) {
			for i := range in.Members {
				in.Members[i].IsLead = false
			}
		}, ErrLeadMemberRequired},
		{"two lead members", func(in *RegistrationInput) {
			for i := range in.Members {
				in.Members[i].IsLead = true
			}
		}, ErrLeadMemberRequired},
		{"member with bad email", func(in *RegistrationInput) { in.Members[1].Email = "nope" }, ErrValidationFailed},
		{"missing title", func(in *RegistrationInput) { in.PaperTitle = "" }, ErrPaperTitleRequired},
		{"blank domains", func(in *RegistrationInput) { in.Domains = []string{" ", ""} }, ErrDomainsRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uploader := &fakeUploader{}
			svc := newRegistrationService(t, &fakeTeamRepo{}, &fakeMemberRepo{}, &fakePaperRepo{}, &failingAssignment{}, uploader)

			input := validRegistration()
			tc.mutate(&input)
			_, err := svc.Register(context.Background(), input, pdfUpload(), pdfUpload())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, uploader.uploaded, "nothing should be uploaded on validation failure")
		})
	}
}

func TestRegisterRejectsNonPDFUploads(t *testing.T) {
	svc := newRegistrationService(t, &fakeTeamRepo{}, &fakeMemberRepo{}, &fakePaperRepo{}, &failingAssignment{}, &fakeUploader{})

	_, err := svc.Register(context.Background(), validRegistration(), pngUpload(), pdfUpload())
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestRegisterCleansUpOnConflict(t *testing.T) {
	teamRepo := &fakeTeamRepo{createErr: repositories.ErrTeamEmailConflict}
	uploader := &fakeUploader{}
	svc := newRegistrationService(t, teamRepo, &fakeMemberRepo{}, &fakePaperRepo{}, &failingAssignment{}, uploader)

	_, err := svc.Register(context.Background(), validRegistration(), pdfUpload(), pdfUpload())
	assert.ErrorIs(t, err, ErrTeamEmailConflict)
	assert.Len(t, uploader.deletedKeys(), 2, "uploaded files should be removed when the insert fails")
}
