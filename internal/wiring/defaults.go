package wiring

import (
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"
	"iotcare-data/internal/service"
)

// 身份实体的注册 key
const (
	KeyUsers             = "users"
	KeyDevices           = "devices"
	KeyUserProfiles      = "user-profiles"
	KeyUserRelationships = "user-relationships"
)

// registerKind 注册一个时序记录类型
func registerKind[R domain.Record, P any](r *Registry, slug string, build func(service.RecordRepository[R, P]) any) {
	r.Register(slug,
		func(sess repository.Session) any {
			return repository.NewTimeSeriesRepository[R, P](sess, slug)
		},
		func(adapter any) any {
			return build(adapter.(*repository.TimeSeriesRepository[R, P]))
		},
	)
}

func plain[R domain.Record, P any](deps service.Deps) func(service.RecordRepository[R, P]) any {
	return func(repo service.RecordRepository[R, P]) any {
		return service.NewRecordService[R, P](repo, deps)
	}
}

// NewDefaultRegistry 注册全部记录类型与身份实体
func NewDefaultRegistry(pool SessionSource, deps service.Deps) *Registry {
	r := NewRegistry(pool, deps.Logger)

	// 原始传感器
	registerKind(r, domain.KindCDS, plain[domain.CDSReading, domain.CDSPatch](deps))
	registerKind(r, domain.KindDHT, plain[domain.DHTReading, domain.DHTPatch](deps))
	registerKind(r, domain.KindFlame, plain[domain.FlameRawReading, domain.FlameRawPatch](deps))
	registerKind(r, domain.KindIMU, plain[domain.IMUReading, domain.IMUPatch](deps))
	registerKind(r, domain.KindLoadCell, func(repo service.RecordRepository[domain.LoadCellReading, domain.LoadCellPatch]) any {
		return service.NewLoadCellService(repo, deps)
	})
	gas := func(repo service.RecordRepository[domain.GasReading, domain.GasPatch]) any {
		return service.NewGasService(repo, deps)
	}
	registerKind(r, domain.KindMQ5, gas)
	registerKind(r, domain.KindMQ7, gas)
	registerKind(r, domain.KindRFID, func(repo service.RecordRepository[domain.RFIDReading, domain.RFIDPatch]) any {
		return service.NewRFIDService(repo, deps)
	})
	registerKind(r, domain.KindSound, func(repo service.RecordRepository[domain.SoundReading, domain.SoundPatch]) any {
		return service.NewSoundService(repo, deps)
	})
	registerKind(r, domain.KindTCRT5000, func(repo service.RecordRepository[domain.TCRT5000Reading, domain.TCRT5000Patch]) any {
		return service.NewTCRT5000Service(repo, deps)
	})
	registerKind(r, domain.KindUltrasonic, func(repo service.RecordRepository[domain.UltrasonicReading, domain.UltrasonicPatch]) any {
		return service.NewUltrasonicService(repo, deps)
	})
	registerKind(r, domain.KindTemperature, func(repo service.RecordRepository[domain.TemperatureReading, domain.TemperaturePatch]) any {
		return service.NewTemperatureService(repo, deps)
	})

	// 边缘事件
	registerKind(r, domain.KindEdgeFlame, func(repo service.RecordRepository[domain.EdgeFlameEvent, domain.EdgeFlamePatch]) any {
		return service.NewEdgeFlameService(repo, deps)
	})
	registerKind(r, domain.KindEdgePIR, func(repo service.RecordRepository[domain.EdgePIREvent, domain.EdgePIRPatch]) any {
		return service.NewEdgePIRService(repo, deps)
	})
	registerKind(r, domain.KindEdgeReed, func(repo service.RecordRepository[domain.EdgeReedEvent, domain.EdgeReedPatch]) any {
		return service.NewEdgeReedService(repo, deps)
	})
	registerKind(r, domain.KindEdgeTilt, func(repo service.RecordRepository[domain.EdgeTiltEvent, domain.EdgeTiltPatch]) any {
		return service.NewEdgeTiltService(repo, deps)
	})

	// 执行器
	registerKind(r, domain.KindActuatorBuzzer, plain[domain.BuzzerLog, domain.BuzzerPatch](deps))
	registerKind(r, domain.KindActuatorIRTX, plain[domain.IRTXLog, domain.IRTXPatch](deps))
	registerKind(r, domain.KindActuatorRelay, plain[domain.RelayLog, domain.RelayPatch](deps))
	registerKind(r, domain.KindActuatorServo, plain[domain.ServoLog, domain.ServoPatch](deps))

	// 设备状态、按钮、居家快照
	registerKind(r, domain.KindDeviceRTC, func(repo service.RecordRepository[domain.RTCStatus, domain.RTCPatch]) any {
		return service.NewRTCService(repo, deps)
	})
	registerKind(r, domain.KindButton, func(repo service.RecordRepository[domain.ButtonEvent, domain.ButtonPatch]) any {
		return service.NewButtonService(repo, deps)
	})
	registerKind(r, domain.KindHomeState, func(repo service.RecordRepository[domain.HomeStateSnapshot, domain.HomeStatePatch]) any {
		return service.NewHomeStateService(repo, deps)
	})

	// 身份实体
	r.Register(KeyUsers,
		func(sess repository.Session) any { return repository.NewPostgresUserRepository(sess) },
		func(a any) any { return service.NewUserService(a.(repository.UserRepository), deps) },
	)
	r.Register(KeyDevices,
		func(sess repository.Session) any { return repository.NewPostgresDevicesRepository(sess) },
		func(a any) any { return service.NewDeviceService(a.(repository.DeviceRepository), deps) },
	)
	r.Register(KeyUserProfiles,
		func(sess repository.Session) any { return repository.NewPostgresUserProfilesRepository(sess) },
		func(a any) any { return service.NewUserProfileService(a.(repository.UserProfileRepository), deps) },
	)
	r.Register(KeyUserRelationships,
		func(sess repository.Session) any { return repository.NewPostgresUserRelationshipsRepository(sess) },
		func(a any) any {
			return service.NewUserRelationshipService(a.(repository.UserRelationshipRepository), deps)
		},
	)
	return r
}
