package order

import (
	"quickorder/internal/metrics"
	"quickorder/internal/order/controller"
	"quickorder/internal/order/repository"
	"quickorder/internal/order/service"
	"quickorder/internal/order/usecase"
	"quickorder/internal/storage"

	"go.uber.org/zap"
)

type Module struct {
	Repository *repository.OrderLogRepository
	Orders     *controller.OrdersController
	Admin      *controller.AdminOrdersController
}

func NewModule(store storage.Store, m *metrics.Metrics, logger *zap.Logger) *Module {
	repo := repository.NewOrderLogRepository(store, logger)
	statusSvc := service.NewStatusService(repo, m, logger)
	history := usecase.NewHistoryUseCase(repo, store, logger)

	return &Module{
		Repository: repo,
		Orders:     controller.NewOrdersController(history, logger),
		Admin:      controller.NewAdminOrdersController(statusSvc, logger),
	}
}
