package upload

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/go-logr/logr"
)

// Info holds the links an image hosting service returns for an upload.
type Info struct {
	Original  string `json:"original"`
	Page      string `json:"page"`
	Thumbnail string `json:"thumbnail"`
}

func (i Info) missing() []string {
	var missing []string
	if i.Original == "" {
		missing = append(missing, "original")
	}
	if i.Page == "" {
		missing = append(missing, "page")
	}
	if i.Thumbnail == "" {
		missing = append(missing, "thumbnail")
	}
	return missing
}

// ParseResponse reads an XML (<url>, <browseurl>, <thumb>) or JSON upload
// response. It never fails: fields that cannot be read stay empty and the
// problem is logged.
func ParseResponse(log logr.Logger, contentType string, body []byte) Info {
	var info Info
	var err error
	if strings.Contains(contentType, "json") || bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		info, err = parseJSON(body)
	} else {
		info, err = parseXML(body)
	}
	if err != nil {
		log.Error(err, "could not parse upload response", "response", string(body))
	}
	if missing := info.missing(); len(missing) > 0 {
		log.Info("upload response is missing fields", "missing", missing)
	}
	return info
}

func parseXML(body []byte) (Info, error) {
	var info Info
	fields := map[string]*string{
		"url":       &info.Original,
		"browseurl": &info.Page,
		"thumb":     &info.Thumbnail,
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return info, nil
		}
		if err != nil {
			return info, err
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		field, ok := fields[strings.ToLower(start.Name.Local)]
		if !ok || *field != "" {
			continue
		}
		var text string
		if err := decoder.DecodeElement(&text, &start); err != nil {
			return info, err
		}
		*field = strings.TrimSpace(text)
	}
}

func parseJSON(body []byte) (Info, error) {
	var document map[string]any
	if err := json.Unmarshal(body, &document); err != nil {
		return Info{}, err
	}
	if data, ok := document["data"].(map[string]any); ok {
		document = data
	}
	lookup := func(keys ...string) string {
		for _, key := range keys {
			if s, ok := document[key].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	return Info{
		Original:  lookup("original", "url", "link"),
		Page:      lookup("page", "browseurl", "page_url"),
		Thumbnail: lookup("thumbnail", "thumb", "thumb_url"),
	}, nil
}
