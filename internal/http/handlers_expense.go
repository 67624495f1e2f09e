package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

const maxPhotoSize = 10 << 20 // 10 MiB

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p := s.loadProject(w, r)
	if p == nil {
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "1"
	expenses, err := s.ledger.ListExpenses(r.Context(), p.ID, includeDeleted)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseDTOs(expenses))
}

// handleCreateExpense accepts either a JSON body or a multipart form with
// an optional receipt photo.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := s.requireOwnedProject(w, r)
	if p == nil {
		return
	}

	var (
		name, value, category string
		photoFile             multipart.File
		photoHeader           *multipart.FileHeader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid multipart form")
			return
		}
		name = r.FormValue("name")
		value = r.FormValue("value")
		category = r.FormValue("category")

		if file, header, err := r.FormFile("photo"); err == nil {
			defer file.Close()
			photoFile, photoHeader = file, header
		}
	} else {
		var req struct {
			Name     string `json:"name"`
			Value    string `json:"value"`
			Category string `json:"category"`
		}
		if err := parseBody(r, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		name, value, category = req.Name, req.Value, req.Category
	}

	name = sanitizeInput(name)
	category = sanitizeInput(category)

	cents, err := core.ParseDecimalToCents(value)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("invalid value: %v", err))
		return
	}

	// Validate before touching the upload dir so a rejected expense
	// leaves no orphan photo behind.
	candidate := core.Expense{
		ProjectID: p.ID,
		Name:      name,
		Value:     core.Money{Cents: cents},
		Category:  category,
	}
	if err := candidate.Validate(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	var photoURL string
	if photoFile != nil {
		photoURL, err = s.savePhoto(photoFile, photoHeader)
		if err != nil {
			respondError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	e, err := s.ledger.RecordExpense(r.Context(), p.ID, name, cents, category, photoURL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.reportCache.Delete(reportKey(p.ID))
	respondJSON(w, http.StatusCreated, toExpenseDTO(e))
}

// handleRemoveExpense soft-deletes an expense. Deletion is the client's
// correction path for wrongly-entered expenses; the owning architect may
// delete as well. Anyone else sees the expense as missing.
func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Authorization goes through the owning project.
	e, err := s.ledger.GetExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := s.projects.GetProject(r.Context(), e.ProjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !canView(currentUser(r), p) {
		respondError(w, r, http.StatusNotFound, "expense not found")
		return
	}

	removed, err := s.ledger.RemoveExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.reportCache.Delete(reportKey(p.ID))
	respondJSON(w, http.StatusOK, toExpenseDTO(removed))
}

// savePhoto stores an uploaded receipt under the upload directory with a
// random file name, keeping the original extension.
func (s *Server) savePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.uploadDir == "" {
		return "", fmt.Errorf("photo uploads not configured")
	}
	if header.Size > maxPhotoSize {
		return "", fmt.Errorf("photo too large (max %d bytes)", maxPhotoSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
	default:
		return "", fmt.Errorf("unsupported photo type %q", ext)
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate photo name: %w", err)
	}
	fileName := hex.EncodeToString(buf) + ext

	dst, err := os.Create(filepath.Join(s.uploadDir, fileName))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxPhotoSize)); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return "/uploads/" + fileName, nil
}
