package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coupon-next/internal/authz"
	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	adminhandlers "github.com/coupon-next/internal/http/handlers/admin"
	publichandlers "github.com/coupon-next/internal/http/handlers/public"
	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	redeemRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:redeem", redisPrefix),
		WindowSeconds: cfg.Security.RedeemRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.RedeemRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.RedeemRateLimit.BlockSeconds,
		MessageKey:    "error.redeem_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 优惠券接口（登录可选，匿名兑换受验证码与限流约束）
		coupons := apiV1.Group("/coupons")
		coupons.Use(OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			coupons.GET("/:code/validate", publicHandler.ValidateCoupon)
			coupons.POST("/redeem", RateLimitMiddleware(redisClient, redeemRule, KeyByIPAndJSONField("code")), publicHandler.RedeemCoupon)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetMe)
			user.PUT("/me/password", publicHandler.UserChangePassword)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 优惠券管理
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.POST("/coupons/batch", adminHandler.CreateCouponBatch)
				authorized.GET("/coupons", adminHandler.GetCoupons)
				authorized.GET("/coupons/:id", adminHandler.GetCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.GET("/coupons/:id/users", adminHandler.GetCouponRecords)

				// 活动管理
				authorized.GET("/campaigns", adminHandler.GetCampaigns)
				authorized.GET("/campaigns/:id", adminHandler.GetCampaign)
				authorized.POST("/campaigns", adminHandler.CreateCampaign)
				authorized.PUT("/campaigns/:id", adminHandler.UpdateCampaign)
				authorized.DELETE("/campaigns/:id", adminHandler.DeleteCampaign)

				// 兑换流水
				authorized.GET("/redemption-logs", adminHandler.GetRedemptionLogs)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
