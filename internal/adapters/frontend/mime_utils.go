package frontend

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/mikey/phishguard/internal/core"
)

const noTextPlaceholder = "[No text content found in multipart message]"

var wordDecoder = &mime.WordDecoder{}

// ParseMessage reads an RFC 5322 message and extracts the fields used for analysis.
// The From header wins over envelopeFrom, which is used when the header is missing.
func ParseMessage(r io.Reader, envelopeFrom string) (*core.EmailData, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	content, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	sender := decodeHeader(msg.Header.Get("From"))
	if sender == "" {
		sender = envelopeFrom
	}

	return &core.EmailData{
		Sender:  sender,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Content: content,
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the raw value if decoding fails
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages the text/plain parts are concatenated.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	text, err := extractTextParts(multipart.NewReader(msg.Body, params["boundary"]))
	if err != nil {
		return "", err
	}
	if text == "" {
		return noTextPlaceholder, nil
	}
	return text, nil
}

// extractTextParts walks a multipart body, descending into nested multiparts
func extractTextParts(mr *multipart.Reader) (string, error) {
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was read before the malformed part
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			return "", err
		}

		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			mediaType = "text/plain"
		}

		switch {
		case mediaType == "text/plain":
			partBytes, err := io.ReadAll(part)
			if err != nil {
				continue
			}
			textContent.Write(partBytes)
			textContent.WriteString("\n")
		case strings.HasPrefix(mediaType, "multipart/") && params["boundary"] != "":
			nested, err := extractTextParts(multipart.NewReader(part, params["boundary"]))
			if err == nil {
				textContent.WriteString(nested)
			}
		}
	}

	return textContent.String(), nil
}
