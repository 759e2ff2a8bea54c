package fsapi

// FileEntry represents a single entry in a directory listing as returned
// by the backend.
type FileEntry struct {
	Name     string `json:"name"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"` // ISO-8601
	IsParent bool   `json:"isParent,omitempty"`
}

// ParentEntry is the synthetic ".." row prepended to non-root listings.
// It is never part of a selection and never sent to the backend.
func ParentEntry() FileEntry {
	return FileEntry{Name: "..", IsDir: true, IsParent: true}
}

// TransferRequest is the body for copy and move operations.
type TransferRequest struct {
	SourceStorage string `json:"source_storage"`
	TargetStorage string `json:"target_storage"`
	SourcePath    string `json:"source_path"`
	TargetPath    string `json:"target_path"`
}

// RenameRequest is the body for rename operations.
type RenameRequest struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
}

type apiError struct {
	Message string `json:"message"`
}

type listResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Files     []FileEntry `json:"files"`
		Available int64       `json:"available,omitempty"`
		Total     int64       `json:"total,omitempty"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type errorResponse struct {
	Error *apiError `json:"error,omitempty"`
}
