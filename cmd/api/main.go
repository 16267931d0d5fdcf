package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftsense/attendance-backend-go/internal/config"
	"github.com/shiftsense/attendance-backend-go/internal/domain/device"
	"github.com/shiftsense/attendance-backend-go/internal/domain/schedule"
	appHTTP "github.com/shiftsense/attendance-backend-go/internal/handler/http"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/cron"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/database"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/jwt"
	"github.com/shiftsense/attendance-backend-go/internal/pkg/sse"
	"github.com/shiftsense/attendance-backend-go/internal/repository/postgresql"
	absenceService "github.com/shiftsense/attendance-backend-go/internal/service/absence"
	attendanceService "github.com/shiftsense/attendance-backend-go/internal/service/attendance"
	ingestService "github.com/shiftsense/attendance-backend-go/internal/service/ingest"
	"github.com/shiftsense/attendance-backend-go/internal/service/notify"
	scheduleService "github.com/shiftsense/attendance-backend-go/internal/service/schedule"
	"github.com/shiftsense/attendance-backend-go/internal/service/watch"
)

// attendanceChannel is the NOTIFY channel the attendance table trigger fires on.
const attendanceChannel = "attendance_changes"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	loc, err := time.LoadLocation(cfg.Attendance.Timezone)
	if err != nil {
		fmt.Println("Error loading timezone:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	userDirectory := postgresql.NewUserDirectory(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	absenceRepo := postgresql.NewAbsenceRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub()

	notifyService := notify.NewNotifyService(notificationRepo, hub, notify.Config{})
	defer notifyService.Stop()

	lookup := scheduleService.NewScheduleLookup(shiftRepo, loc)
	manualTolerance := schedule.Tolerance{
		Late:       cfg.Attendance.ManualLateTolerance,
		EarlyGrace: cfg.Attendance.ManualEarlyGrace,
	}
	deviceTolerance := schedule.Tolerance{
		Late:       cfg.Attendance.DeviceLateTolerance,
		EarlyGrace: cfg.Attendance.DeviceEarlyGrace,
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		lookup,
		userDirectory,
		notifyService,
		loc,
		manualTolerance,
	)

	roles := device.NewRoleMap(cfg.Device.EntryAddrs, cfg.Device.ExitAddrs, cfg.Device.DenylistAddrs)
	ingestSvc := ingestService.NewIngestService(
		roles,
		userDirectory,
		attendanceRepo,
		attendanceSvc,
		notifyService,
		deviceTolerance,
	)

	absenceSvc := absenceService.NewAbsenceService(
		shiftRepo,
		attendanceRepo,
		absenceRepo,
		notifyService,
		loc,
		cfg.Absence.MinWorked,
	)

	scheduler := cron.NewScheduler()
	absenceJobs := cron.NewAbsenceJobs(func(ctx context.Context) error {
		_, err := absenceSvc.RunSweep(ctx)
		return err
	})
	absenceJobs.RegisterJobs(scheduler, cfg.Absence.SweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	listener := database.NewListener(db, attendanceChannel)
	watcher := watch.NewWatcher(listener, attendanceRepo, hub, cfg.Watch.BreakLimit, cfg.Watch.Debounce)
	watcher.Start()
	defer watcher.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	deviceHandler := appHTTP.NewDeviceHandler(ingestSvc)
	absenceHandler := appHTTP.NewAbsenceHandler(absenceSvc)
	streamHandler := appHTTP.NewStreamHandler(watcher, hub, jwtService)

	router := appHTTP.NewRouter(
		cfg,
		jwtService,
		attendanceHandler,
		deviceHandler,
		absenceHandler,
		streamHandler,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Shutdown error:", err)
	}
}
