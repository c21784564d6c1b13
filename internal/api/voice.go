package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/mybot/internal/errors"
	"github.com/diogo/mybot/internal/models"
)

// MaxSpeechSize caps the synthesized audio read into memory
const MaxSpeechSize = 25 * 1024 * 1024 // 25MB

// ReadAudioFile loads a recording from disk for Transcribe
func ReadAudioFile(path string) (*models.AudioClip, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}
	if info.Size() > MaxUploadSize {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput,
			fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), MaxUploadSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}

	return &models.AudioClip{
		Data:     data,
		MIMEType: detectMIMEType(path),
		FileName: filepath.Base(path),
	}, nil
}

// Transcribe sends a recorded clip for speech-to-text
func (c *Client) Transcribe(ctx context.Context, clip *models.AudioClip) (*models.Transcription, error) {
	if clip.Size() == 0 {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, fmt.Errorf("audio clip is empty"))
	}

	fileName := clip.FileName
	if fileName == "" {
		fileName = "voice-input" + clip.Extension()
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := createFilePart(writer, models.FieldAudio, fileName, clip.MIMEType)
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}
	if err := writer.Close(); err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}

	req, err := c.newRequest(ctx, models.EndpointVoiceInput, &body, writer.FormDataContentType())
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, apierrors.NewTranscriptionStatusError(models.EndpointVoiceInput, resp.StatusCode, readErrorBody(resp.Body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewTranscriptionError(models.EndpointVoiceInput, fmt.Errorf("failed to read response: %w", err))
	}

	transcript := strings.TrimSpace(gjson.GetBytes(respBody, "transcript").String())
	if transcript == "" {
		transcript = models.TranscriptFallback
	}

	c.logger.Debug("audio transcribed", "bytes", clip.Size(), "chars", len(transcript))
	return &models.Transcription{Transcript: transcript}, nil
}

// Synthesize converts text to speech and returns the audio
func (c *Client) Synthesize(ctx context.Context, text string) (*models.AudioClip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.ErrNothingToSpeak
	}

	req, err := c.newJSONRequest(ctx, models.EndpointVoiceOutput, text)
	if err != nil {
		return nil, apierrors.NewSynthesisError(models.EndpointVoiceOutput, err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, apierrors.NewSynthesisError(models.EndpointVoiceOutput, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, apierrors.NewSynthesisStatusError(models.EndpointVoiceOutput, resp.StatusCode, readErrorBody(resp.Body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSpeechSize+1))
	if err != nil {
		return nil, apierrors.NewSynthesisError(models.EndpointVoiceOutput, fmt.Errorf("failed to read audio: %w", err))
	}
	if len(data) == 0 {
		return nil, apierrors.NewSynthesisError(models.EndpointVoiceOutput, fmt.Errorf("server returned no audio"))
	}
	if len(data) > MaxSpeechSize {
		return nil, apierrors.NewSynthesisError(models.EndpointVoiceOutput,
			fmt.Errorf("audio exceeds maximum %d bytes", MaxSpeechSize))
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = models.DefaultSpeechMIME
	}

	c.logger.Debug("speech synthesized", "bytes", len(data), "mime", mimeType)
	return &models.AudioClip{Data: data, MIMEType: mimeType}, nil
}
