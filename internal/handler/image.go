package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tripcrew/tripcrew/internal/domain"
)

// UploadImage attaches a multipart-uploaded image file to a post. The file
// lands on disk first; if the database insert then fails the stored file is
// removed so the upload directory does not accumulate unreferenced files.
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	s.uploadImage(w, r, "postID", s.posts.AttachImage)
}

// UploadLocationImage attaches a multipart-uploaded image file to a crawl
// stop, with the same disk-first flow as UploadImage.
func (s *Server) UploadLocationImage(w http.ResponseWriter, r *http.Request) {
	s.uploadImage(w, r, "locationID", s.posts.AttachLocationImage)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, param string, attach func(ctx context.Context, userID, parentID uuid.UUID, url string) (domain.Image, error)) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	parentID, ok := pathID(w, r, param)
	if !ok {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		badRequest(w, `multipart field "image" is required`)
		return
	}
	defer file.Close()

	url, err := s.uploads.Save(file, header.Filename)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	image, err := attach(r.Context(), user.ID, parentID, url)
	if err != nil {
		s.uploads.Remove(url)
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"image": image})
}

// DeleteImage removes an image attachment and its stored file. Post author
// or trip owner. The row is deleted first; file removal is best-effort.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	imageID, ok := pathID(w, r, "imageID")
	if !ok {
		return
	}

	url, err := s.posts.DeleteImage(r.Context(), user.ID, imageID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	s.uploads.Remove(url)
	w.WriteHeader(http.StatusNoContent)
}
