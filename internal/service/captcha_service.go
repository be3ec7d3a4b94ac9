package service

import (
	"strings"
	"sync"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"

	"github.com/mojocn/base64Captcha"
)

const (
	defaultCaptchaLength     = 4
	defaultCaptchaWidth      = 240
	defaultCaptchaHeight     = 80
	defaultCaptchaMaxStore   = 10240
	defaultCaptchaExpireSecs = 300
)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaService 图片验证码服务，按场景开关决定是否强制校验
type CaptchaService struct {
	cfg config.CaptchaConfig

	mu         sync.Mutex
	imageStore base64Captcha.Store
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	return &CaptchaService{cfg: cfg}
}

// Enabled 验证码功能是否开启
func (s *CaptchaService) Enabled() bool {
	return s != nil && strings.ToLower(strings.TrimSpace(s.cfg.Provider)) == constants.CaptchaProviderImage
}

// IsSceneEnabled 指定场景是否需要验证码
func (s *CaptchaService) IsSceneEnabled(scene string) bool {
	if !s.Enabled() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scene)) {
	case constants.CaptchaSceneLogin:
		return s.cfg.Scenes.Login
	case constants.CaptchaSceneGuestRedeem:
		return s.cfg.Scenes.GuestRedeem
	default:
		return false
	}
}

// PublicSetting 下发给前端的公开配置
func (s *CaptchaService) PublicSetting() map[string]interface{} {
	provider := constants.CaptchaProviderNone
	if s.Enabled() {
		provider = constants.CaptchaProviderImage
	}
	return map[string]interface{}{
		"provider": provider,
		"scenes": map[string]bool{
			constants.CaptchaSceneLogin:       s.IsSceneEnabled(constants.CaptchaSceneLogin),
			constants.CaptchaSceneGuestRedeem: s.IsSceneEnabled(constants.CaptchaSceneGuestRedeem),
		},
	}
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if !s.Enabled() {
		return nil, ErrCaptchaConfigInvalid
	}

	driver := base64Captcha.NewDriverString(
		resolveCaptchaInt(s.cfg.Image.Height, defaultCaptchaHeight),
		resolveCaptchaInt(s.cfg.Image.Width, defaultCaptchaWidth),
		s.cfg.Image.NoiseCount,
		s.cfg.Image.ShowLine,
		resolveCaptchaInt(s.cfg.Image.Length, defaultCaptchaLength),
		"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, s.ensureImageStore())
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}

	return &CaptchaImageChallenge{
		CaptchaID:   strings.TrimSpace(id),
		ImageBase64: strings.TrimSpace(b64s),
	}, nil
}

// Verify 按场景校验验证码；场景未开启时直接放行
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload) error {
	if !s.IsSceneEnabled(scene) {
		return nil
	}

	captchaID := strings.TrimSpace(payload.CaptchaID)
	captchaCode := strings.TrimSpace(payload.CaptchaCode)
	if captchaID == "" || captchaCode == "" {
		return ErrCaptchaRequired
	}
	if !s.ensureImageStore().Verify(captchaID, captchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) ensureImageStore() base64Captcha.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imageStore == nil {
		maxStore := resolveCaptchaInt(s.cfg.Image.MaxStore, defaultCaptchaMaxStore)
		expire := time.Duration(resolveCaptchaInt(s.cfg.Image.ExpireSeconds, defaultCaptchaExpireSecs)) * time.Second
		s.imageStore = base64Captcha.NewMemoryStore(maxStore, expire)
	}
	return s.imageStore
}

func resolveCaptchaInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
