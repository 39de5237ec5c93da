package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/confdesk/conference-system/middleware"
	"github.com/confdesk/conference-system/services"
)

const maxMultipartMemory = 32 << 20 // 32 MiB

type TeamHandler struct {
	registrationService services.RegistrationService
	paperService        services.PaperService
}

func NewTeamHandler(registrationService services.RegistrationService, paperService services.PaperService) *TeamHandler {
	return &TeamHandler{
		registrationService: registrationService,
		paperService:        paperService,
	}
}

// Register handles the multipart registration form: a "data" part with the
// JSON payload plus the "paper" and "plagiarism" PDF parts.
func (h *TeamHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	var input services.RegistrationInput
	if err := json.Unmarshal([]byte(r.FormValue("data")), &input); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid registration payload: %w", err))
		return
	}

	paperFile, cleanupPaper, err := fileFromForm(r, "paper")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer cleanupPaper()

	plagiarismFile, cleanupPlagiarism, err := fileFromForm(r, "plagiarism")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer cleanupPlagiarism()

	team, err := h.registrationService.Register(r.Context(), input, paperFile, plagiarismFile)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) GetMyPaper(w http.ResponseWriter, r *http.Request) {
	teamID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	paper, err := h.paperService.GetOwn(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"paper": paper}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) UploadPayment(w http.ResponseWriter, r *http.Request) {
	teamID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	screenshot, cleanup, err := fileFromForm(r, "screenshot")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer cleanup()

	paper, err := h.paperService.UploadPaymentProof(r.Context(), teamID, r.FormValue("sender_name"), screenshot)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"paper": paper}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TeamHandler) SubmitFinal(w http.ResponseWriter, r *http.Request) {
	teamID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	cameraReady, cleanupCamera, err := fileFromForm(r, "camera_ready")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer cleanupCamera()

	plagiarismReport, cleanupReport, err := fileFromForm(r, "plagiarism_report")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer cleanupReport()

	paper, err := h.paperService.SubmitFinal(r.Context(), teamID, r.FormValue("participation_mode"), cameraReady, plagiarismReport)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"paper": paper}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// fileFromForm opens one uploaded part; the caller must invoke the returned
// cleanup once done with the reader.
func fileFromForm(r *http.Request, field string) (services.FileUpload, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return services.FileUpload{}, nil, errors.New("missing file upload: " + field)
	}
	return services.FileUpload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, func() { file.Close() }, nil
}
