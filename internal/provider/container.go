package provider

import (
	"github.com/coupon-next/internal/authz"
	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	CouponRepo        repository.CouponRepository
	CouponUserRepo    repository.CouponUserRepository
	CampaignRepo      repository.CampaignRepository
	RedemptionLogRepo repository.RedemptionLogRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	UserAuthService    *service.UserAuthService
	CaptchaService     *service.CaptchaService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	CampaignService    *service.CampaignService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUserRepo = repository.NewCouponUserRepository(db)
	c.CampaignRepo = repository.NewCampaignRepository(db)
	c.RedemptionLogRepo = repository.NewRedemptionLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)

	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUserRepo, c.QueueClient, c.Config.Coupon)
	c.CampaignService = service.NewCampaignService(c.CampaignRepo, c.CouponRepo)
	c.CouponAdminService = service.NewCouponAdminService(
		c.CouponService,
		c.CouponRepo,
		c.CouponUserRepo,
		c.CampaignRepo,
		c.RedemptionLogRepo,
	)
}
