package services

import (
	"errors"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/utils"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	AuthType string `json:"auth_type" form:"auth_type"` // local, ldap
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user *models.User
	var err error

	if req.AuthType == "" {
		req.AuthType = "local"
		if s.IsLDAPEnabled() {
			req.AuthType = "ldap"
		}
	}

	switch req.AuthType {
	case "local":
		user, err = s.localAuth(req.Username, req.Password)
	case "ldap":
		user, err = s.ldapAuth(req.Username, req.Password)
		if err != nil {
			// local accounts such as the bootstrap admin still work
			if localUser, localErr := s.localAuth(req.Username, req.Password); localErr == nil {
				user, err = localUser, nil
			}
		}
	default:
		return nil, response.NewBadRequest("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, hours)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(user).UpdateColumn("last_login", now).Error; err != nil {
		logger.Warnf("[Auth] Failed to update last login for %s: %v", user.Username, err)
	}
	user.LastLogin = &now

	return &LoginResponse{
		Token:    token,
		User:     user,
		ExpireAt: now.Add(time.Duration(hours) * time.Hour),
	}, nil
}

func (s *AuthService) localAuth(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ? AND auth_type = ?", username, "local").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, response.NewUnauthorized("invalid username or password")
	}

	return &user, nil
}

func (s *AuthService) ldapAuth(username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		logger.Debug().Err(err).Str("username", username).Msg("ldap authentication failed")
		return nil, response.NewUnauthorized("invalid username or password")
	}

	var user models.User
	err = s.db.Where("username = ? AND auth_type = ?", ldapUser.Username, "ldap").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username: ldapUser.Username,
			Email:    ldapUser.Email,
			Nickname: ldapUser.Nickname,
			Role:     "user",
			AuthType: "ldap",
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Info().Str("username", user.Username).Msg("created ldap user")
	} else if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}

	user.Email = ldapUser.Email
	user.Nickname = ldapUser.Nickname
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername is used for proxy authenticated requests.
func (s *AuthService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	found, err := firstWhere(s.db, &user, "username = ?", username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("user not found")
	}
	return &user, nil
}

// ResolveAPIKey returns the active user owning an API key.
func (s *AuthService) ResolveAPIKey(key string) (*models.User, error) {
	if key == "" {
		return nil, response.NewUnauthorized("invalid token")
	}
	var profile models.UserProfile
	if err := s.db.Where("api_key = ?", key).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthorized("invalid token")
		}
		return nil, err
	}
	user, err := s.GetUserByID(profile.UserID)
	if err != nil {
		return nil, response.NewUnauthorized("invalid token")
	}
	if !user.IsActive {
		return nil, response.NewForbidden("user is disabled")
	}
	return user, nil
}

// RegenerateAPIKey issues a new API key for the user, replacing the old one.
func (s *AuthService) RegenerateAPIKey(userID uint) (string, error) {
	profile, err := s.profile(s.db, userID)
	if err != nil {
		return "", err
	}
	key := utils.GenerateAPIKey()
	profile.APIKey = &key
	if err := s.db.Save(profile).Error; err != nil {
		return "", err
	}
	return key, nil
}

// GetProfile returns the profile of a user, creating an empty one.
func (s *AuthService) GetProfile(userID uint) (*models.UserProfile, error) {
	return s.profile(s.db, userID)
}

type ProfileRequest struct {
	IRCNick          *string `json:"irc_nick"`
	PagerType        *string `json:"pager_type"`
	PagerNumber      *string `json:"pager_number"`
	EpagerAddress    *string `json:"epager_address"`
	IsDesktopOncall  *bool   `json:"is_desktop_oncall"`
	IsSysadminOncall *bool   `json:"is_sysadmin_oncall"`
	IsServicesOncall *bool   `json:"is_services_oncall"`
}

func (s *AuthService) UpdateProfile(userID uint, req *ProfileRequest) (*models.UserProfile, error) {
	profile, err := s.profile(s.db, userID)
	if err != nil {
		return nil, err
	}
	setString(&profile.IRCNick, req.IRCNick)
	setString(&profile.PagerType, req.PagerType)
	setString(&profile.PagerNumber, req.PagerNumber)
	setString(&profile.EpagerAddress, req.EpagerAddress)
	if req.IsDesktopOncall != nil {
		profile.IsDesktopOncall = *req.IsDesktopOncall
	}
	if req.IsSysadminOncall != nil {
		profile.IsSysadminOncall = *req.IsSysadminOncall
	}
	if req.IsServicesOncall != nil {
		profile.IsServicesOncall = *req.IsServicesOncall
	}
	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) profile(db *gorm.DB, userID uint) (*models.UserProfile, error) {
	if _, err := s.GetUserByID(userID); err != nil {
		return nil, err
	}
	profile := models.UserProfile{UserID: userID}
	if err := db.Where(models.UserProfile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateAdminIfNotExists creates default admin user if not exists
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}

	admin := models.User{
		Username: "admin",
		Password: hashedPassword,
		Nickname: "Administrator",
		Role:     "admin",
		AuthType: "local",
		IsActive: true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Warn().Msg("created default admin user, change its password")
	return nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return response.NewNotFound("user not found")
	}

	if user.AuthType != "local" {
		return response.NewBadRequest("LDAP users cannot change password here")
	}

	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return response.NewBadRequest("incorrect old password")
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.db.Save(&user).Error
}
