package config

import (
	"net/url"
	"strings"

	"capture-dispatcher/internal/schedule"

	"golang.org/x/xerrors"
)

var reservedDesignations = map[string]string{
	"file":   "file",
	"s3":     "s3",
	"upload": "upload",
	"picker": "chooser",
}

func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return xerrors.New("max_depth must not be negative")
	}
	if c.File.Enabled && strings.TrimSpace(c.File.Directory) == "" {
		return xerrors.New("file.directory must be set when file is enabled")
	}
	if c.Upload.Endpoint != "" {
		u, err := url.Parse(c.Upload.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return xerrors.Errorf("upload.endpoint must be an http(s) URL: %s", c.Upload.Endpoint)
		}
	}
	if err := c.validateApplications(); err != nil {
		return err
	}
	return c.validateJobs()
}

func (c *Config) validateApplications() error {
	seen := map[string]struct{}{}
	for i, a := range c.Applications {
		if a.Designation == "" {
			return xerrors.Errorf("applications[%d].designation must be set", i)
		}
		if strings.Contains(a.Designation, "/") {
			return xerrors.Errorf("applications[%d].designation must not contain '/': %s", i, a.Designation)
		}
		if section, ok := reservedDesignations[a.Designation]; ok {
			return xerrors.Errorf("applications[%d].designation %s is used by %s", i, a.Designation, section)
		}
		if _, ok := seen[a.Designation]; ok {
			return xerrors.Errorf("applications[%d].designation %s is duplicated", i, a.Designation)
		}
		seen[a.Designation] = struct{}{}
		if a.Executable == "" {
			return xerrors.Errorf("applications[%d].executable must be set", i)
		}
	}
	return nil
}

func (c *Config) validateJobs() error {
	seen := map[string]struct{}{}
	for i, j := range c.Jobs {
		if j.Name == "" {
			return xerrors.Errorf("jobs[%d].name must be set", i)
		}
		if _, ok := seen[j.Name]; ok {
			return xerrors.Errorf("jobs[%d].name %s is duplicated", i, j.Name)
		}
		seen[j.Name] = struct{}{}
		if _, err := schedule.Parser.Parse(j.Schedule); err != nil {
			return xerrors.Errorf("jobs[%d].schedule is invalid: %w", i, err)
		}
		if j.URL == "" {
			return xerrors.Errorf("jobs[%d].url must be set", i)
		}
	}
	return nil
}
