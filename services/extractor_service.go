package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"google.golang.org/genai"
)

// SetUnidocLicense registers the UniPDF metered license key. PDF extraction
// fails without it.
func SetUnidocLicense(key string) error {
	return license.SetMeteredKey(key)
}

// ExtractorService turns uploaded files into plain text. Plain text and
// markdown pass through, PDFs go through UniPDF, and images/SVG/HTML are
// described by the Gemini multimodal API.
type ExtractorService struct {
	geminiClient *genai.Client
	visionModel  string
}

func NewExtractorService(geminiClient *genai.Client, visionModel string) *ExtractorService {
	if visionModel == "" {
		visionModel = "gemini-2.5-flash"
	}
	return &ExtractorService{geminiClient: geminiClient, visionModel: visionModel}
}

// ExtractText returns the text content of an uploaded file, dispatching on
// its MIME type.
func (e *ExtractorService) ExtractText(ctx context.Context, mimeType string, data []byte) (string, error) {
	switch {
	case mimeType == "text/plain" || mimeType == "text/markdown":
		return string(data), nil
	case mimeType == "application/pdf":
		return extractTextFromPDF(data)
	case strings.HasPrefix(mimeType, "image/") || mimeType == "text/html":
		return e.extractWithGemini(ctx, mimeType, data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
}

// ExtractTextFromFile reads a file from disk and extracts its text. Used by
// the uploads watcher.
func (e *ExtractorService) ExtractTextFromFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return string(data), nil
	case ".md":
		return string(data), nil
	case ".pdf":
		return extractTextFromPDF(data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// extractTextFromPDF uses UniPDF to get all text from a PDF.
func extractTextFromPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n") // Add space between pages
	}

	return sb.String(), nil
}

// extractWithGemini asks the multimodal model to pull the text out of an
// image, SVG or HTML upload.
func (e *ExtractorService) extractWithGemini(ctx context.Context, mimeType string, data []byte) (string, error) {
	if e.geminiClient == nil {
		return "", fmt.Errorf("multimodal extraction requires a Gemini client")
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{Text: MultimodalExtractionPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	result, err := e.geminiClient.Models.GenerateContent(ctx, e.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini multimodal api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini multimodal api returned no content")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini multimodal api returned empty text")
	}
	return sb.String(), nil
}
