package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"whisper-relay/internal/api/dto"
	apierrors "whisper-relay/internal/api/errors"
	"whisper-relay/internal/api/middleware"
	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/model"
	"whisper-relay/internal/app/relay"
)

// TranscriptionHandler handles the transcription endpoints
type TranscriptionHandler struct {
	relay relay.Submitter
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(submitter relay.Submitter) *TranscriptionHandler {
	return &TranscriptionHandler{
		relay: submitter,
	}
}

// Microphone handles POST /api/microphone
// Transcribes a base64 encoded recording
//
// @Summary Transcribe a microphone recording
// @Accept json
// @Produce json
// @Param request body dto.MicrophoneRequest true "Recording and language"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 400 {object} errors.APIError "Missing or invalid audio"
// @Failure 401 {object} errors.APIError "Provider rejected the API key"
// @Failure 429 {object} errors.APIError "Provider rate limit"
// @Failure 500 {object} errors.APIError "Configuration or provider failure"
// @Router /api/microphone [post]
func (h *TranscriptionHandler) Microphone(c *gin.Context) {
	var req dto.MicrophoneRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	result := h.relay.SubmitEncodedBuffer(c.Request.Context(), relay.BufferSubmission{
		Encoded:  req.Audio,
		Language: req.Language,
		Channel:  model.ChannelHTTPMicrophone,
	})
	respond(c, result)
}

// File handles POST /api/file
// Transcribes an uploaded audio or video file
//
// @Summary Transcribe an uploaded file
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio or video file"
// @Param language formData string false "Language code"
// @Success 200 {object} dto.TranscriptionResponse
// @Failure 400 {object} errors.APIError "No file or unsupported type"
// @Failure 401 {object} errors.APIError "Provider rejected the API key"
// @Failure 429 {object} errors.APIError "Provider rate limit"
// @Failure 500 {object} errors.APIError "Configuration or provider failure"
// @Router /api/file [post]
func (h *TranscriptionHandler) File(c *gin.Context) {
	var form dto.FileForm
	if err := middleware.ValidateForm(c, &form); err != nil {
		middleware.HandleError(c, err)
		return
	}
	if form.File == nil {
		middleware.HandleError(c, apierrors.NewBadRequestError("No file uploaded"))
		return
	}

	data, err := readUpload(form.File)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	result := h.relay.SubmitFile(c.Request.Context(), relay.FileSubmission{
		Data:       data,
		MimeType:   form.File.Header.Get("Content-Type"),
		OriginName: form.File.Filename,
		Language:   form.Language,
		Channel:    model.ChannelHTTPFile,
	})
	respond(c, result)
}

func respond(c *gin.Context, result model.TranscriptionResult) {
	if result.Failed() {
		middleware.HandleError(c, apierrors.FromResult(result))
		return
	}
	c.JSON(http.StatusOK, dto.TranscriptionResponse{Transcription: result.Text})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "failed to open upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierrors.NewBadRequestError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "failed to read upload")
	}
	return data, nil
}
