// =============================================================================
// Merchant Feed Ingest - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the ingest run:
//   - Directory management
//   - Output file naming
//   - Archival of processed feeds
//
// ARCHIVAL STRATEGY:
//   - A feed is moved to input_archive only after its run completed
//   - Failed feeds remain in their original location
//   - An existing archive entry is never overwritten; the new name gets a
//     timestamp suffix
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// OutputDir is the directory where clean datasets and error reports go.
	OutputDir string

	// InputArchiveDir is the directory for archived feeds.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/276_feed.csv
	UseTimestampSubdirs bool

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
		now:             time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the given directories if they don't exist. Empty
// entries are skipped.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a processed feed to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the feed to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.archivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath constructs a free archive path for a file.
func (fm *FileManager) archivePath(filePath string) string {
	now := fm.clock()
	dir := fm.InputArchiveDir

	if fm.UseTimestampSubdirs {
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	path := filepath.Join(dir, filepath.Base(filePath))
	if !FileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(path, ext), now.Format("20060102_150405"), ext)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputPath generates a file name from format and joins it to OutputDir.
func (fm *FileManager) OutputPath(format string, params map[string]string) string {
	return filepath.Join(fm.OutputDir, GenerateOutputFileName(format, params))
}

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {merchant}  - Merchant ID
//     {original}  - Feed file name (without extension)
//   - params: A map of placeholder values, keyed without braces.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//
//	format: "{merchant}_{original}_{uuid}.csv"
//	params: {"merchant": "276", "original": "product_update"}
//	output: "276_product_update_a1b2c3d4-e5f6-7890-abcd-ef1234567890.csv"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// BaseName returns a file's name without directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
