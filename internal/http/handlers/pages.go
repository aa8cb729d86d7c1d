package handlers

import (
	"net/http"
	"strconv"

	"github.com/geocoder89/gatekeeper/internal/domain/profile"
	"github.com/geocoder89/gatekeeper/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Page placeholders. Rendering is out of scope; these only give the route
// guard real paths to protect and report what would be shown.

func LandingPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"page":  "landing",
		"links": []string{"/login", "/signup", "/home"},
	})
}

func LoginPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"page":     "login",
		"redirect": ctx.Query("redirect"),
	})
}

func SignUpPage(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"page": "signup"})
}

func HomePage(ctx *gin.Context) {
	resp := gin.H{
		"page":     "home",
		"profiles": profile.All(),
	}

	if s, ok := middlewares.GuardSessionFromContext(ctx); ok {
		resp["viewer"] = gin.H{"name": s.Name, "role": s.Role}
	}

	ctx.JSON(http.StatusOK, resp)
}

func ProfilePage(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)

	ctx.JSON(http.StatusOK, gin.H{
		"page":    "profile",
		"profile": profile.Lookup(id),
	})
}

func ContactPage(ctx *gin.Context) {
	id, _ := strconv.ParseInt(ctx.Param("id"), 10, 64)
	p := profile.Lookup(id)

	ctx.JSON(http.StatusOK, gin.H{
		"page": "contact",
		"to":   gin.H{"id": p.ID, "name": p.Name},
		"back": "/home/" + strconv.FormatInt(p.ID, 10),
	})
}
