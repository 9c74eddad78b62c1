package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sign-in credentials payload.
type authCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResult is returned by a successful sign-in.
type TokenResult struct {
	Token string `json:"token"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		respondError(c, http.StatusBadRequest, codeInvalidRequest, "invalid body: "+err.Error())
		return false
	}
	return true
}

// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      authCredentials  true  "Admin credentials"
// @Success      200   {object}  APIResponse{result=TokenResult}
// @Failure      400   {object}  APIResponse
// @Failure      401   {object}  APIResponse
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(input.Username, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "username", input.Username, "err", err)
		}
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
		return
	}

	respondOK(c, TokenResult{Token: token})
}
