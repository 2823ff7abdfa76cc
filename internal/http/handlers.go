package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/forms"
	"storefront/internal/repository"
	"storefront/internal/shop"
)

type Server struct {
	engine   *gin.Engine
	store    *shop.StoreService
	accounts *shop.AccountService
	logger   *zap.Logger
}

func NewServer(store *shop.StoreService, accounts *shop.AccountService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	s := &Server{engine: r, store: store, accounts: accounts, logger: logger}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := s.engine.Group("", s.loadSession)
	r.POST("/register/", s.register)
	r.POST("/login/", s.login)
	r.POST("/logout/", s.logout)
	r.GET("/api/products/", s.listProducts)

	auth := r.Group("", requireAuth, csrfProtect)
	{
		api := auth.Group("/api")
		api.POST("/add-to-cart/", s.addToCart)
		api.POST("/get-product/", s.getProduct)
		api.POST("/buy-product/", s.buyProduct)
		api.POST("/remove-from-cart/", s.removeFromCart)
		api.POST("/clear-cart/", s.clearCart)
		api.POST("/checkout-cart/", s.checkoutCart)
		api.GET("/cart/", s.cart)
		api.GET("/library/", s.library)

		auth.POST("/change-password/", s.changePassword)
		auth.POST("/change-login/", s.changeLogin)
		auth.GET("/payment/demo/:id/", s.demoPayment)
		auth.GET("/download/:slug/", s.download)
	}
}

type productReq struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

func bindProduct(c *gin.Context) (int64, bool) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID товара не указан"})
		return 0, false
	}
	return req.ProductID, true
}

// @Summary List products
// @Tags catalog
// @Produce json
// @Param q query string false "Title contains"
// @Param free query bool false "Only free products"
// @Success 200 {array} domain.Product
// @Router /api/products/ [get]
func (s *Server) listProducts(c *gin.Context) {
	f := repository.ProductFilter{TitleSubstring: c.Query("q")}
	if v, err := strconv.ParseBool(c.Query("free")); err == nil {
		f.OnlyFree = v
	}
	list, err := s.store.Catalog(c, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/add-to-cart/ [post]
func (s *Server) addToCart(c *gin.Context) {
	id, ok := bindProduct(c)
	if !ok {
		return
	}
	p, err := s.store.AddToCart(c, accountFrom(c).ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": p.Title + " добавлен в корзину"})
}

// @Summary Get free product
// @Tags library
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/get-product/ [post]
func (s *Server) getProduct(c *gin.Context) {
	id, ok := bindProduct(c)
	if !ok {
		return
	}
	p, err := s.store.GetFreeProduct(c, accountFrom(c).ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"product_slug": p.Slug,
		"download_url": shop.DownloadURL(p.Slug),
	})
}

// @Summary Buy product
// @Tags library
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/buy-product/ [post]
func (s *Server) buyProduct(c *gin.Context) {
	id, ok := bindProduct(c)
	if !ok {
		return
	}
	pay, err := s.store.BuyProduct(c, accountFrom(c).ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment_url": pay.URL, "demo_mode": pay.DemoMode})
}

// @Summary Remove product from cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body productReq true "Product"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /api/remove-from-cart/ [post]
func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := bindProduct(c)
	if !ok {
		return
	}
	if err := s.store.RemoveFromCart(c, accountFrom(c).ID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Товар удален из корзины"})
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/clear-cart/ [post]
func (s *Server) clearCart(c *gin.Context) {
	if err := s.store.ClearCart(c, accountFrom(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Корзина очищена"})
}

type checkoutReq struct {
	SelectedProducts []domain.CartItem `json:"selected_products"`
}

// @Summary Checkout selected cart items
// @Tags cart
// @Accept json
// @Produce json
// @Param input body checkoutReq true "Selection"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /api/checkout-cart/ [post]
func (s *Server) checkoutCart(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": shop.ErrInvalidInput.Error()})
		return
	}
	res, err := s.store.Checkout(c, accountFrom(c).ID, req.SelectedProducts)
	if err != nil {
		s.fail(c, err)
		return
	}
	free := res.FreeSlugs
	if free == nil {
		free = []string{}
	}
	if res.Payment == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"free_products": free,
			"message":       "Бесплатные товары добавлены в библиотеку",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"payment_url":   res.Payment.URL,
		"demo_mode":     res.Payment.DemoMode,
		"free_products": free,
		"total_amount":  res.TotalAmount,
	})
}

// @Summary Cart contents
// @Tags cart
// @Produce json
// @Success 200 {array} domain.Product
// @Router /api/cart/ [get]
func (s *Server) cart(c *gin.Context) {
	items, err := s.store.Cart(c, accountFrom(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Purchased and received products
// @Tags library
// @Produce json
// @Success 200 {array} domain.Purchase
// @Router /api/library/ [get]
func (s *Server) library(c *gin.Context) {
	list, err := s.store.Library(c, accountFrom(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Complete demo payment
// @Tags library
// @Produce json
// @Param id path string true "Product ID or cart-checkout"
// @Success 200 {object} map[string]any
// @Router /payment/demo/{id}/ [get]
func (s *Server) demoPayment(c *gin.Context) {
	userID := accountFrom(c).ID
	if c.Param("id") == "cart-checkout" {
		paid, err := s.store.CompleteCartPayment(c, userID)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Оплата прошла успешно", "paid": len(paid)})
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := s.store.CompletePayment(c, userID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Оплата прошла успешно", "download_url": shop.DownloadURL(p.Slug)})
}

// @Summary Download page of an owned product
// @Tags library
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} domain.Product
// @Failure 403 {object} map[string]string
// @Router /download/{slug}/ [get]
func (s *Server) download(c *gin.Context) {
	p, err := s.store.ProductBySlug(c, c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	lib, err := s.store.Library(c, accountFrom(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, it := range lib {
		if it.ProductID == p.ID {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "Товар не приобретён"})
}

type passwordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// @Summary Change password
// @Tags profile
// @Accept json
// @Produce json
// @Param input body passwordReq true "Passwords"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /change-password/ [post]
func (s *Server) changePassword(c *gin.Context) {
	var req passwordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": shop.ErrInvalidInput.Error()})
		return
	}
	if err := s.accounts.ChangePassword(c, accountFrom(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Пароль успешно изменен"})
}

type loginChangeReq struct {
	CurrentPassword string `json:"current_password"`
	NewLogin        string `json:"new_login"`
}

// @Summary Change login
// @Tags profile
// @Accept json
// @Produce json
// @Param input body loginChangeReq true "New login"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /change-login/ [post]
func (s *Server) changeLogin(c *gin.Context) {
	var req loginChangeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": shop.ErrInvalidInput.Error()})
		return
	}
	if err := s.accounts.ChangeLogin(c, accountFrom(c).ID, req.CurrentPassword, req.NewLogin); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Логин успешно изменен", "new_login": req.NewLogin})
}

type registerForm struct {
	Username  string `form:"username" binding:"required"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password  string `form:"password" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
}

// @Summary Register
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /register/ [post]
func (s *Server) register(c *gin.Context) {
	var req registerForm
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": shop.ErrInvalidInput.Error()})
		return
	}
	_, err := s.accounts.Register(c, shop.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Аккаунт создан! Теперь войдите в систему.", "redirect_url": "/login/"})
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// @Summary Login
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /login/ [post]
func (s *Server) login(c *gin.Context) {
	var req loginForm
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": shop.ErrBadCredentials.Error()})
		return
	}
	sess, err := s.accounts.Login(c, req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, 0, "/", "", false, true)
	c.SetCookie(CSRFCookie, sess.CSRFToken, 0, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Добро пожаловать, " + req.Username + "!", "redirect_url": "/"})
}

// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /logout/ [post]
func (s *Server) logout(c *gin.Context) {
	if sess := sessionFrom(c); sess != nil {
		if err := s.accounts.Logout(c, sess.ID); err != nil {
			s.fail(c, err)
			return
		}
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Вы вышли из аккаунта.", "redirect_url": "/"})
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// fail отвечает {"error": ...}; внутренние ошибки клиенту не раскрываются
func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		msg = verr.First()
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		msg = "Ошибка сервера"
	}
	c.JSON(status, gin.H{"error": msg})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, forms.ErrValidation),
		errors.Is(err, shop.ErrInvalidInput),
		errors.Is(err, shop.ErrEmptySelection),
		errors.Is(err, shop.ErrPasswordMismatch),
		errors.Is(err, shop.ErrBadCredentials),
		errors.Is(err, shop.ErrWrongPassword),
		errors.Is(err, shop.ErrNotFree),
		errors.Is(err, shop.ErrFree):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shop.ErrProductNotFound),
		errors.Is(err, shop.ErrNoPendingPayment):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrAlreadyInCart),
		errors.Is(err, shop.ErrAlreadyOwned),
		errors.Is(err, shop.ErrUsernameTaken),
		errors.Is(err, shop.ErrLoginTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
