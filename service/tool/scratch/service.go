// Package scratch gives agents a session-scoped file workspace. Writes and
// edits are gated; reading back is not.
package scratch

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/tool"
)

// WriteInput creates or replaces a scratch file.
type WriteInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

// EditInput replaces the first occurrence of OldString with NewString.
type EditInput struct {
	FilePath  string `json:"file_path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// ReadInput reads a scratch file back.
type ReadInput struct {
	FilePath string `json:"file_path"`
}

// Service provides the scratch-file tool set for one session.
type Service struct {
	sessionID string
	files     dao.Service[string, model.AgentFile]
}

// New creates the scratch tool service scoped to a session.
func New(sessionID string, files dao.Service[string, model.AgentFile]) *Service {
	return &Service{sessionID: sessionID, files: files}
}

// Definitions returns the scratch-file tool definitions.
func (s *Service) Definitions() []*tool.Definition {
	return []*tool.Definition{
		{
			Name:             "write_file",
			Description:      "Create or overwrite a scratch file with the given content.",
			Input:            reflect.TypeOf(&WriteInput{}),
			RequiresApproval: true,
			Handler:          s.write,
		},
		{
			Name:             "edit_file",
			Description:      "Replace the first occurrence of old_string with new_string in a scratch file.",
			Input:            reflect.TypeOf(&EditInput{}),
			RequiresApproval: true,
			Handler:          s.edit,
		},
		{
			Name:        "read_file",
			Description: "Read a scratch file.",
			Input:       reflect.TypeOf(&ReadInput{}),
			Handler:     s.read,
		},
		{
			Name:        "list_files",
			Description: "List scratch files created in this session.",
			Handler:     s.list,
		},
	}
}

func (s *Service) fileID(path string) string {
	return s.sessionID + ":" + path
}

func (s *Service) write(ctx context.Context, in interface{}) (string, error) {
	input := in.(*WriteInput)
	if input.FilePath == "" {
		return "", fmt.Errorf("file_path is required")
	}
	now := clock.Now()
	file := &model.AgentFile{
		ID:        s.fileID(input.FilePath),
		SessionID: s.sessionID,
		Path:      input.FilePath,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, _ := s.files.Load(ctx, file.ID); existing != nil {
		file.CreatedAt = existing.CreatedAt
	}
	if err := s.files.Save(ctx, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(input.Content), input.FilePath), nil
}

func (s *Service) edit(ctx context.Context, in interface{}) (string, error) {
	input := in.(*EditInput)
	file, err := s.files.Load(ctx, s.fileID(input.FilePath))
	if err != nil {
		return "", err
	}
	if file == nil {
		return fmt.Sprintf("Error: file %q not found", input.FilePath), nil
	}
	if !strings.Contains(file.Content, input.OldString) {
		return fmt.Sprintf("Error: old_string not found in %s", input.FilePath), nil
	}
	updated := strings.Replace(file.Content, input.OldString, input.NewString, 1)
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(file.Content),
		B:        difflib.SplitLines(updated),
		FromFile: input.FilePath,
		ToFile:   input.FilePath,
		Context:  2,
	})
	file.Content = updated
	file.UpdatedAt = clock.Now()
	if err = s.files.Save(ctx, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("Edited %s:\n%s", input.FilePath, diff), nil
}

func (s *Service) read(ctx context.Context, in interface{}) (string, error) {
	input := in.(*ReadInput)
	file, err := s.files.Load(ctx, s.fileID(input.FilePath))
	if err != nil {
		return "", err
	}
	if file == nil {
		return fmt.Sprintf("Error: file %q not found", input.FilePath), nil
	}
	return file.Content, nil
}

func (s *Service) list(ctx context.Context, _ interface{}) (string, error) {
	files, err := s.files.List(ctx)
	if err != nil {
		return "", err
	}
	var paths []string
	for _, file := range files {
		if file.SessionID == s.sessionID {
			paths = append(paths, file.Path)
		}
	}
	if len(paths) == 0 {
		return "No scratch files yet.", nil
	}
	sort.Strings(paths)
	return strings.Join(paths, "\n"), nil
}
