package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/huangsam/patternscan/core/rules"
	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/schema"
)

// ErrNotUTF8 is returned for files whose content is not valid UTF-8.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

// FileRecordBuilder builds the scan record of a single file.
// The first failing step short-circuits the remaining ones.
type FileRecordBuilder struct {
	rules   *rules.RuleSet
	file    scan.File
	record  *schema.FileRecord
	content []byte
	err     error
}

// NewFileRecordBuilder is the starting point for building a file record.
func NewFileRecordBuilder(rs *rules.RuleSet, file scan.File) *FileRecordBuilder {
	return &FileRecordBuilder{
		rules:  rs,
		file:   file,
		record: &schema.FileRecord{Path: file.Rel},
	}
}

// ReadContent loads the file into memory.
func (b *FileRecordBuilder) ReadContent() *FileRecordBuilder {
	if b.err != nil {
		return b
	}
	content, err := os.ReadFile(b.file.Path)
	if err != nil {
		b.err = fmt.Errorf("cannot read %s: %w", b.file.Rel, err)
		return b
	}
	b.content = content
	b.record.ByteSize = int64(len(content))
	return b
}

// ValidateEncoding rejects content that is not valid UTF-8.
func (b *FileRecordBuilder) ValidateEncoding() *FileRecordBuilder {
	if b.err != nil {
		return b
	}
	if !utf8.Valid(b.content) {
		b.err = fmt.Errorf("%s: %w", b.file.Rel, ErrNotUTF8)
	}
	return b
}

// CountLines counts newline-separated lines. An empty file has one line.
func (b *FileRecordBuilder) CountLines() *FileRecordBuilder {
	if b.err != nil {
		return b
	}
	b.record.LineCount = bytes.Count(b.content, []byte("\n")) + 1
	return b
}

// MatchPatterns applies the rule set to the content.
func (b *FileRecordBuilder) MatchPatterns() *FileRecordBuilder {
	if b.err != nil {
		return b
	}
	b.record.PatternHits = b.rules.Match(string(b.content))
	return b
}

// Build returns the final record or the first error encountered.
func (b *FileRecordBuilder) Build() (schema.FileRecord, error) {
	if b.err != nil {
		return schema.FileRecord{}, b.err
	}
	return *b.record, nil
}
