package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/absensi-app/attendance-backend-go/internal/config"
	appHTTP "github.com/absensi-app/attendance-backend-go/internal/handler/http"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/clock"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/database"
	"github.com/absensi-app/attendance-backend-go/internal/pkg/jwt"
	"github.com/absensi-app/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/absensi-app/attendance-backend-go/internal/service/attendance"
	authService "github.com/absensi-app/attendance-backend-go/internal/service/auth"
	leaveService "github.com/absensi-app/attendance-backend-go/internal/service/leave"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	sessionRepo := postgresql.NewSessionRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	txManager := postgresql.NewTxManager(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	clk := clock.New(cfg.Attendance.Timezone)

	authSvc := authService.NewAuthService(userRepo, txManager, jwtService)
	leaveSvc := leaveService.NewLeaveService(leaveRequestRepo, clk)
	attendanceSvc := attendanceService.NewAttendanceService(sessionRepo, leaveRequestRepo, clk, cfg.Attendance)

	authHandler := appHTTP.NewAuthHandler(authSvc, jwtService)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc)

	router := appHTTP.NewRouter(cfg, jwtService, authHandler, attendanceHandler, leaveHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
