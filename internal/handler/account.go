package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/muzz-match/internal/middleware"
	"github.com/oggyb/muzz-match/internal/service/account"
)

const (
	// MaxPhotosPerUpload bounds the files accepted by one upload request.
	MaxPhotosPerUpload = 6
	// MaxPhotoBytes bounds a single uploaded file.
	MaxPhotoBytes = 5 << 20
)

var photoExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
}

// AccountHandler exposes signup, login and profile routes.
type AccountHandler struct {
	svc           *account.Service
	uploadDir     string
	publicBaseURL string
}

// NewAccountHandler stores uploads under uploadDir. Photo URLs are built from
// publicBaseURL, or from the request host when it is empty.
func NewAccountHandler(svc *account.Service, uploadDir, publicBaseURL string) *AccountHandler {
	return &AccountHandler{
		svc:           svc,
		uploadDir:     uploadDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (h *AccountHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/users/signup", h.Signup)
	public.POST("/users/login", h.Login)

	protected.GET("/users/:id", h.GetProfile)
	protected.PUT("/users/:id", h.UpdateProfile)
	protected.POST("/users/:id/photos", h.UploadPhotos)
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var in account.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user created", "userId": u.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	u, err := h.svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var in account.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UploadPhotos stores multipart "photos" files and appends their URLs to the
// profile. Every file is checked before any is written, and written files
// are removed again when the request fails.
func (h *AccountHandler) UploadPhotos(c *gin.Context) {
	id := c.Param("id")
	if middleware.UserID(c) != id {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "cannot modify another user's profile"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "expected multipart form")
		return
	}
	files := form.File["photos"]
	if len(files) == 0 {
		badRequest(c, "at least one photo is required")
		return
	}
	if len(files) > MaxPhotosPerUpload {
		badRequest(c, fmt.Sprintf("at most %d photos per upload", MaxPhotosPerUpload))
		return
	}

	names := make([]string, len(files))
	for i, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := photoExtensions[ext]; !ok {
			badRequest(c, "unsupported photo type "+ext)
			return
		}
		if fh.Size > MaxPhotoBytes {
			badRequest(c, "photo exceeds size limit")
			return
		}
		names[i] = uuid.NewString() + ext
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondError(c, err)
		return
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			_ = os.Remove(p)
		}
	}

	base := h.baseURL(c)
	urls := make([]string, 0, len(files))
	for i, fh := range files {
		path := filepath.Join(h.uploadDir, names[i])
		if err := c.SaveUploadedFile(fh, path); err != nil {
			cleanup()
			respondError(c, err)
			return
		}
		written = append(written, path)
		urls = append(urls, base+"/images/"+names[i])
	}

	u, err := h.svc.AddPhotos(c.Request.Context(), middleware.UserID(c), id, urls)
	if err != nil {
		cleanup()
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AccountHandler) baseURL(c *gin.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
