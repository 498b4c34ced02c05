package database

import (
	"fmt"
	"log"
	"studytrack_backend/internal/config"
	"studytrack_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dbc := &cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		dbc.User,
		dbc.Password,
		dbc.Host,
		dbc.Port,
		dbc.DBName,
		dbc.Charset,
		dbc.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过迁移，--migrate 强制执行
	if cfg.Server.Mode == "release" && !cfg.ForceMigrate {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.University{},
		&model.StudentUser{},
		&model.ActivityRecord{},
		&model.Assignment{},
		&model.Badge{},
		&model.StudentBadge{},
		&model.Checkin{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认徽章
	var badgeCount int64
	db.Model(&model.Badge{}).Count(&badgeCount)
	if badgeCount == 0 {
		defaultBadges := []model.Badge{
			{Code: "first_session", Name: "初次打开书本", Criteria: model.CriteriaSessionCount, Threshold: 1, RewardXP: 10},
			{Code: "study_regular", Name: "学习常客", Criteria: model.CriteriaSessionCount, Threshold: 25, RewardXP: 50},
			{Code: "study_marathon", Name: "学习马拉松", Criteria: model.CriteriaSessionCount, Threshold: 100, RewardXP: 200},
			{Code: "lms_native", Name: "课程平台住户", Criteria: model.CriteriaLmsSessions, Threshold: 20, RewardXP: 50},
			{Code: "week_streak", Name: "坚持一周", Criteria: model.CriteriaStreakDays, Threshold: 7, RewardXP: 70},
			{Code: "month_streak", Name: "坚持一月", Criteria: model.CriteriaStreakDays, Threshold: 30, RewardXP: 300},
			{Code: "finisher", Name: "作业终结者", Criteria: model.CriteriaCompleted, Threshold: 10, RewardXP: 100},
		}
		for _, b := range defaultBadges {
			db.Create(&b)
		}
	}

	// 默认大学（便于本地联调）
	var uniCount int64
	db.Model(&model.University{}).Count(&uniCount)
	if uniCount == 0 {
		db.Create(&model.University{Name: "Demo University", Domain: "demo.edu"})
	}

	return db, nil
}
